package calendar

import (
	"context"
	"fmt"

	"wa_scheduler/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleCalendar 是基于 Google Calendar API v3 的 Port 实现。
// 凭证是用户授权时存下的 refresh token；访问令牌按需刷新。
type GoogleCalendar struct {
	oauth *oauth2.Config
}

// NewGoogleCalendar 创建一个 Google Calendar 客户端。
func NewGoogleCalendar(cfg *config.GoogleOAuthConfig) *GoogleCalendar {
	return &GoogleCalendar{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{calendarapi.CalendarScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthCodeURL 生成 OAuth 授权页 URL；state 用于携带发起授权的用户手机号。
func (g *GoogleCalendar) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange 用授权码换取令牌，返回其中的 refresh token。
func (g *GoogleCalendar) Exchange(ctx context.Context, code string) (string, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return "", fmt.Errorf("no refresh token in exchange response")
	}
	return token.RefreshToken, nil
}

// service 用 refresh token 构建一个 Calendar API 服务实例。
func (g *GoogleCalendar) service(ctx context.Context, refreshToken string) (*calendarapi.Service, error) {
	ts := g.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	srv, err := calendarapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return srv, nil
}

// CreateEvent 在用户的主日历上创建事件。
func (g *GoogleCalendar) CreateEvent(ctx context.Context, credential string, in *EventInput) (*EventRef, error) {
	srv, err := g.service(ctx, credential)
	if err != nil {
		return nil, err
	}

	event := &calendarapi.Event{
		Summary: in.Title,
		Start: &calendarapi.EventDateTime{
			DateTime: in.Start.Format("2006-01-02T15:04:05-07:00"),
			TimeZone: in.Timezone,
		},
		End: &calendarapi.EventDateTime{
			DateTime: in.End.Format("2006-01-02T15:04:05-07:00"),
			TimeZone: in.Timezone,
		},
	}
	if in.Location != "" {
		event.Location = in.Location
	}
	for _, email := range in.Attendees {
		event.Attendees = append(event.Attendees, &calendarapi.EventAttendee{Email: email})
	}

	created, err := srv.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google calendar insert: %w", err)
	}

	return &EventRef{EventID: created.Id, HTMLLink: created.HtmlLink}, nil
}

// DeleteEvent 从用户的主日历上删除事件。
func (g *GoogleCalendar) DeleteEvent(ctx context.Context, credential string, eventID string) error {
	srv, err := g.service(ctx, credential)
	if err != nil {
		return err
	}
	if err := srv.Events.Delete("primary", eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("google calendar delete: %w", err)
	}
	return nil
}
