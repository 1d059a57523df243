package gcal

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/Mr-Eke/DueBoard/internal/assignment"
	"github.com/Mr-Eke/DueBoard/internal/config"
	appLog "github.com/Mr-Eke/DueBoard/internal/log"
)

// Client wraps the Google Calendar API for the dashboard's two reads:
// listing the account's calendars and listing events for the selected one.
// It owns the OAuth token lifecycle (file-persisted, refreshed by the
// oauth2 transport).
type Client struct {
	conf      *oauth2.Config
	tokenPath string
}

// NewClient builds a client from the configured OAuth application
// credentials. No network traffic happens until a listing call.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		tokenPath: cfg.Google.TokenPath,
	}
}

// AuthURL returns the consent-screen URL for the authorization step.
func (c *Client) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and persists it.
func (c *Client) Exchange(ctx context.Context, code string) error {
	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return ClassifyError("gcal.exchange", err)
	}
	if err := SaveToken(c.tokenPath, tok); err != nil {
		return err
	}
	appLog.Info("oauth token stored", "path", c.tokenPath)
	return nil
}

// Authorized reports whether a token is on disk.
func (c *Client) Authorized() bool {
	_, err := LoadToken(c.tokenPath)
	return err == nil
}

// SignOut discards the persisted token.
func (c *Client) SignOut() error {
	return DeleteToken(c.tokenPath)
}

func (c *Client) service(ctx context.Context) (*calendar.Service, error) {
	tok, err := LoadToken(c.tokenPath)
	if err != nil {
		return nil, err
	}
	httpClient := c.conf.Client(ctx, tok)
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, ClassifyError("gcal.service", err)
	}
	return svc, nil
}

// ListCalendars returns the account's calendars as selection candidates,
// in the order the API returns them.
func (c *Client) ListCalendars(ctx context.Context) ([]assignment.CalendarRef, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	list, err := svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, ClassifyError("gcal.calendars", err)
	}

	refs := make([]assignment.CalendarRef, 0, len(list.Items))
	for _, item := range list.Items {
		refs = append(refs, assignment.CalendarRef{
			ID:          item.Id,
			DisplayName: item.Summary,
		})
	}
	appLog.Debug("calendar list fetched", "count", len(refs))
	return refs, nil
}

// ListEvents fetches upcoming single events for calendarID, ordered by
// start time, from timeMin onward. The returned raw events carry only the
// fields the normalizer consumes.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin time.Time, maxResults int64) ([]assignment.RawEvent, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	events, err := svc.Events.List(calendarID).
		Context(ctx).
		TimeMin(timeMin.Format(time.RFC3339)).
		ShowDeleted(false).
		SingleEvents(true).
		MaxResults(maxResults).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, ClassifyError("gcal.events", err)
	}

	raws := make([]assignment.RawEvent, 0, len(events.Items))
	for _, item := range events.Items {
		raw := assignment.RawEvent{
			Summary:     item.Summary,
			Description: item.Description,
		}
		if item.End != nil {
			raw.EndDate = item.End.Date
			raw.EndDateTime = item.End.DateTime
		}
		raws = append(raws, raw)
	}

	appLog.Info("events fetched", "calendar", calendarID, "count", len(raws))
	return raws, nil
}

// FetchWindowStart returns midnight on the 1st of the month lookbackMonths
// before now, in loc. Assignments due since then remain on the board.
func FetchWindowStart(now time.Time, lookbackMonths int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t := now.In(loc).AddDate(0, -lookbackMonths, 0)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}
