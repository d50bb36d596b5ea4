package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/catalog"
)

// switchKeywords are the commands that clear the current session and re-open
// dataset selection. Matched against the trimmed, case-folded message text,
// with and without a slash prefix.
var switchKeywords = map[string]bool{
	"trocar": true,
	"sair":   true,
	"mudar":  true,
	"voltar": true,
	"menu":   true,
}

// Meta carries the authorized-number metadata that accompanies an inbound
// message.
type Meta struct {
	// UserName is the display name of the sender, when known.
	UserName string
}

// Resolution is the outcome of resolving an inbound message against the
// sender's session state.
type Resolution struct {
	// HasSession indicates an active context was resolved; the message should
	// proceed to the model pipeline.
	HasSession bool

	// Session is the active context when HasSession is true.
	Session *Session

	// NeedsSelection indicates the sender must pick a dataset first.
	NeedsSelection bool

	// AvailableDatasets is the enumeration backing the menu, when one was
	// performed.
	AvailableDatasets []catalog.AvailableDataset

	// MenuMessage is a message body to send back verbatim instead of running
	// the model pipeline: a menu, a confirmation, or a no-access notice.
	MenuMessage string
}

// Resolver decides which data context an inbound message talks to. It
// performs no in-process locking; per-phone atomicity is delegated to the
// store's upsert semantics.
type Resolver struct {
	sessions Store
	datasets catalog.Lister
	ttl      time.Duration
	logger   *slog.Logger
}

// NewResolver creates a resolver over the given session store and dataset
// lister. A zero ttl uses DefaultTTL.
func NewResolver(sessions Store, datasets catalog.Lister, ttl time.Duration) *Resolver {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		sessions: sessions,
		datasets: datasets,
		ttl:      ttl,
		logger:   slog.Default().With("component", "resolver"),
	}
}

// Resolve maps (phone, message) to an active context or a selection flow.
// Branches are evaluated in priority order and each returns immediately:
// switch command, live session (the hot path), then selection.
func (r *Resolver) Resolve(ctx context.Context, phone, message string, meta Meta) (*Resolution, error) {
	if isSwitchCommand(message) {
		if err := r.sessions.Delete(ctx, phone); err != nil {
			return nil, fmt.Errorf("clearing session: %w", err)
		}
		r.logger.Info("session cleared by switch command", "phone", phone)
		return r.openSelection(ctx, phone, meta, "")
	}

	sess, err := r.sessions.Get(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	if sess != nil {
		if err := r.sessions.Touch(ctx, phone); err != nil {
			return nil, fmt.Errorf("refreshing session: %w", err)
		}
		now := time.Now()
		sess.LastActivityAt = now
		sess.ExpiresAt = now.Add(r.ttl)
		return &Resolution{HasSession: true, Session: sess}, nil
	}

	return r.openSelection(ctx, phone, meta, message)
}

// openSelection enumerates datasets and either binds one silently, consumes
// the message as a selection, or renders the menu. A non-empty message is
// interpreted as a selection attempt; switch commands pass "" and always get
// a confirmation or menu back, never a forwarded question.
func (r *Resolver) openSelection(ctx context.Context, phone string, meta Meta, message string) (*Resolution, error) {
	datasets, err := r.datasets.ListForPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}

	switch {
	case len(datasets) == 0:
		return &Resolution{MenuMessage: MsgNoAccess}, nil

	case len(datasets) == 1:
		sess, err := r.createSession(ctx, phone, datasets[0])
		if err != nil {
			return nil, err
		}
		res := &Resolution{
			HasSession:        true,
			Session:           sess,
			AvailableDatasets: datasets,
		}
		if message == "" {
			// Reached via a switch command: confirm the rebind instead of
			// forwarding the command itself as a question.
			res.MenuMessage = ConfirmationMessage(datasets[0].DatasetName)
		}
		return res, nil

	default:
		if message != "" {
			if d := findDatasetByInput(message, datasets); d != nil {
				sess, err := r.createSession(ctx, phone, *d)
				if err != nil {
					return nil, err
				}
				return &Resolution{
					HasSession:        true,
					Session:           sess,
					AvailableDatasets: datasets,
					MenuMessage:       ConfirmationMessage(d.DatasetName),
				}, nil
			}
		}
		return &Resolution{
			NeedsSelection:    true,
			AvailableDatasets: datasets,
			MenuMessage:       RenderMenu(datasets, meta.UserName),
		}, nil
	}
}

func (r *Resolver) createSession(ctx context.Context, phone string, d catalog.AvailableDataset) (*Session, error) {
	now := time.Now()
	sess := &Session{
		Phone:          phone,
		ConnectionID:   d.ConnectionID,
		DatasetID:      d.DatasetID,
		DatasetName:    d.DatasetName,
		ReportID:       d.ReportID,
		SelectedAt:     now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(r.ttl),
	}
	if err := r.sessions.Upsert(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	r.logger.Info("session bound", "phone", phone, "dataset", d.DatasetName)
	return sess, nil
}

// isSwitchCommand reports whether the message, trimmed and case-folded,
// exactly matches a switch keyword or its slash-prefixed variant.
func isSwitchCommand(message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	msg = strings.TrimPrefix(msg, "/")
	return switchKeywords[msg]
}

// findDatasetByInput interprets the input as a dataset selection. An integer
// in [1, N] selects by option number. Otherwise a case-insensitive substring
// match runs against dataset name, report name, then connection name, in
// that priority order, returning the first dataset whose field contains the
// input. Ambiguous substrings match the first dataset in enumeration order;
// this permissiveness is intentional.
func findDatasetByInput(input string, datasets []catalog.AvailableDataset) *catalog.AvailableDataset {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < 1 || n > len(datasets) {
			return nil
		}
		for i := range datasets {
			if datasets[i].OptionNumber == n {
				return &datasets[i]
			}
		}
		return nil
	}

	needle := strings.ToLower(trimmed)
	fields := []func(catalog.AvailableDataset) string{
		func(d catalog.AvailableDataset) string { return d.DatasetName },
		func(d catalog.AvailableDataset) string { return d.ReportName },
		func(d catalog.AvailableDataset) string { return d.ConnectionName },
	}
	for _, field := range fields {
		for i := range datasets {
			if strings.Contains(strings.ToLower(field(datasets[i])), needle) {
				return &datasets[i]
			}
		}
	}
	return nil
}
