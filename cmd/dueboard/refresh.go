package main

import (
	"context"
	"time"

	"github.com/Mr-Eke/DueBoard/internal/assignment"
	"github.com/Mr-Eke/DueBoard/internal/config"
	"github.com/Mr-Eke/DueBoard/internal/gcal"
	"github.com/Mr-Eke/DueBoard/internal/ics"
	appLog "github.com/Mr-Eke/DueBoard/internal/log"
	"github.com/Mr-Eke/DueBoard/internal/session"
)

// feedHorizonDays bounds how far ahead direct feed sources are expanded.
const feedHorizonDays = 60

// boardRefresher runs one full refresh cycle: resolve the Canvas calendar
// if needed, pull raw events from every configured source, normalize them
// into a fresh collection, and install it wholesale.
type boardRefresher struct {
	cfg     *config.Config
	sess    *session.Session
	client  *gcal.Client
	fetcher *ics.Fetcher
	policy  assignment.Policy
}

func newBoardRefresher(cfg *config.Config, sess *session.Session, client *gcal.Client) *boardRefresher {
	return &boardRefresher{
		cfg:     cfg,
		sess:    sess,
		client:  client,
		fetcher: ics.NewFetcher("./var/feed-cache"),
		policy:  policyFromConfig(cfg),
	}
}

func policyFromConfig(cfg *config.Config) assignment.Policy {
	return assignment.Policy{
		DefaultCourse:         cfg.DefaultCourse,
		QuizFallbackField:     cfg.Policies.QuizFallback,
		UrgentIncludesOverdue: cfg.Policies.UrgentIncludesOverdue,
		SearchDescription:     cfg.Policies.SearchDescription,
	}
}

// Refresh implements web.Refresher. Concurrent triggers coalesce: if a
// refresh is already in flight, this one is a no-op.
func (r *boardRefresher) Refresh(ctx context.Context) error {
	gen, ok := r.sess.BeginRefresh()
	if !ok {
		appLog.Debug("refresh already in flight; skipping")
		return nil
	}

	loc := r.cfg.Location()
	now := time.Now()
	windowStart := gcal.FetchWindowStart(now, r.cfg.LookbackMonths, loc)

	var raws []assignment.RawEvent

	if r.client.Authorized() {
		events, err := r.fetchGoogle(ctx, windowStart)
		if err != nil {
			r.sess.FailRefresh(gen, gcal.KindOf(err))
			return err
		}
		raws = append(raws, events...)
	}

	raws = append(raws, r.fetchFeeds(ctx, windowStart, now, loc)...)

	coll := assignment.NormalizeBatch(raws, now, loc, r.policy)
	r.sess.CompleteRefresh(gen, coll)
	appLog.Info("assignments refreshed", "count", coll.Len(), "defects", coll.Defects())
	return nil
}

// fetchGoogle pulls events for the selected calendar, resolving the
// selection on first use. A missing Canvas calendar is a normal empty
// outcome, not an error.
func (r *boardRefresher) fetchGoogle(ctx context.Context, windowStart time.Time) ([]assignment.RawEvent, error) {
	calID := r.sess.CalendarID()
	if calID == "" {
		refs, err := r.client.ListCalendars(ctx)
		if err != nil {
			return nil, err
		}
		id, found := assignment.SelectCalendar(refs, r.cfg.CalendarMatch)
		if !found {
			appLog.Info("no calendar matched; link your Canvas calendar and refresh",
				"match", r.cfg.CalendarMatch, "candidates", len(refs))
			return nil, nil
		}
		r.sess.SetCalendarID(id)
		calID = id
		appLog.Info("calendar selected", "id", id)
	}

	return r.client.ListEvents(ctx, calID, windowStart, r.cfg.MaxResults)
}

// fetchFeeds pulls and expands the direct Canvas feed sources. Feed
// trouble degrades to whatever sources answered; it never fails the batch.
func (r *boardRefresher) fetchFeeds(ctx context.Context, windowStart, now time.Time, loc *time.Location) []assignment.RawEvent {
	if len(r.cfg.Feeds) == 0 {
		return nil
	}

	sources := make([]ics.Source, 0, len(r.cfg.Feeds))
	for _, fc := range r.cfg.Feeds {
		if fc.URL == "" {
			continue
		}
		id := fc.ID
		if id == "" {
			id = fc.Name
		}
		sources = append(sources, ics.Source{ID: id, URL: fc.URL})
	}

	results, errs := r.fetcher.FetchAll(ctx, sources)
	if len(errs) > 0 {
		appLog.Error("some feeds failed", errs[0], "failed", len(errs), "total", len(sources))
	}

	var feedEvents []ics.FeedEvent
	for _, res := range results {
		events, err := ics.ParseFeed(res.Source, res.Body)
		if err != nil {
			appLog.Error("feed parse failed", err, "id", res.Source.ID)
			continue
		}
		feedEvents = append(feedEvents, events...)
	}

	windowEnd := now.AddDate(0, 0, feedHorizonDays)
	return ics.ExpandWindow(feedEvents, windowStart, windowEnd, loc, 0)
}
