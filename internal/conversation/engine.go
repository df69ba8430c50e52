// Package conversation drives the per-chat dialog that turns a free-form
// message into a confirmed, persisted transaction: extraction,
// normalization, category resolution, and the confirmation state machine.
package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fintalk/internal/category"
	"github.com/dvloznov/fintalk/internal/domain"
	"github.com/dvloznov/fintalk/internal/extract"
	"github.com/dvloznov/fintalk/internal/normalize"
	"github.com/dvloznov/fintalk/internal/store"
)

// Extractor is the extraction adapter as the engine sees it.
type Extractor interface {
	Extract(ctx context.Context, rawText string, pc extract.PromptContext) extract.Result
}

// Config carries the engine's tunables.
type Config struct {
	Currency   string
	SessionTTL time.Duration
}

// Engine is the single entry point the chat transport calls. All state
// transitions happen under the session mutex, so messages from one chat are
// processed strictly in arrival order.
type Engine struct {
	extractor Extractor
	registry  *category.Registry
	store     store.Store
	sessions  *Sessions
	currency  string
	log       zerolog.Logger
}

// NewEngine wires the pipeline together.
func NewEngine(extractor Extractor, registry *category.Registry, st store.Store, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{
		extractor: extractor,
		registry:  registry,
		store:     st,
		sessions:  NewSessions(cfg.SessionTTL),
		currency:  cfg.Currency,
		log:       log,
	}
}

// HandleMessage processes one inbound free-text message.
func (e *Engine) HandleMessage(ctx context.Context, chatID, userID, text string, receivedAt time.Time) (Outbound, error) {
	sess := e.sessions.acquire(chatID, userID, receivedAt)
	defer sess.mu.Unlock()

	switch sess.State {
	case StateAwaitingCategoryChoice:
		// Free text while choosing is taken as a replacement hint.
		sess.Draft.CategoryHint = strings.TrimSpace(text)
		sess.Resolved = nil
		return e.resolveAndProceed(ctx, sess, receivedAt)
	default:
		// Idle, plus any state with a pending draft: the new message
		// supersedes whatever was in flight. Drafts are never merged.
		return e.intake(ctx, sess, text, receivedAt)
	}
}

// HandleAction processes one button press from the transport.
func (e *Engine) HandleAction(ctx context.Context, chatID, userID string, act Action, receivedAt time.Time) (Outbound, error) {
	sess := e.sessions.acquire(chatID, userID, receivedAt)
	defer sess.mu.Unlock()

	if act.Kind == ActionCancel {
		if sess.State == StateIdle {
			return PlainText{Text: "Nothing to cancel."}, nil
		}
		sess.reset(receivedAt)
		return PlainText{Text: "Cancelled. The entry was discarded."}, nil
	}

	switch sess.State {
	case StateIdle:
		return PlainText{Text: "Nothing is pending. Describe a transaction to get started."}, nil

	case StateAwaitingConfirmation:
		switch act.Kind {
		case ActionConfirm:
			return e.resolveAndProceed(ctx, sess, receivedAt)
		case ActionEdit:
			return e.applyEdit(ctx, sess, act, receivedAt)
		default:
			return ConfirmationPrompt{Summary: summarize(sess.Draft, sess.Resolved, e.currency)}, nil
		}

	case StateAwaitingCategoryChoice:
		switch act.Kind {
		case ActionSelect:
			idx, err := strconv.Atoi(act.Value)
			if err != nil || idx < 0 || idx >= len(sess.Candidates) {
				return choicePrompt(sess.Candidates, sess.SuggestedName), nil
			}
			sess.Resolved = &sess.Candidates[idx]
			return e.commit(ctx, sess, receivedAt)
		case ActionCreateNew:
			return e.createAndCommit(ctx, sess, receivedAt)
		default:
			return choicePrompt(sess.Candidates, sess.SuggestedName), nil
		}

	case StateAwaitingCorrection:
		return CorrectionPrompt{Defects: sess.Defects}, nil
	}

	return nil, fmt.Errorf("session %s in unknown state %q", sess.ChatID, sess.State)
}

// intake runs the extraction and normalization pipeline for fresh text and
// moves the session into the appropriate state.
func (e *Engine) intake(ctx context.Context, sess *Session, text string, receivedAt time.Time) (Outbound, error) {
	names, err := e.categoryNames(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	result := e.extractor.Extract(ctx, text, extract.PromptContext{
		KnownCategories: names,
		ReferenceDate:   receivedAt,
		Currency:        e.currency,
	})
	if result.Unparseable() {
		e.log.Debug().Str("chat_id", sess.ChatID).Str("reason", result.Reason).Msg("message not understood")
		sess.reset(receivedAt)
		return PlainText{Text: "Sorry, I couldn't find a transaction in that. Try something like \"coffee 5.50\"."}, nil
	}

	draft, defects := normalize.Normalize(result.Parsed, normalize.Context{ReferenceDate: receivedAt}, text)
	if len(defects) > 0 {
		sess.reset(receivedAt)
		sess.State = StateAwaitingCorrection
		sess.Defects = defectStrings(defects)
		return CorrectionPrompt{Defects: sess.Defects}, nil
	}

	sess.Draft = draft
	sess.Candidates = nil
	sess.Resolved = nil
	sess.SuggestedName = ""
	sess.Defects = nil
	sess.State = StateAwaitingConfirmation

	// Eager resolution: a unique match is remembered so confirming commits
	// in one step. Anything else waits for the user's confirm first.
	if res, err := e.registry.Resolve(ctx, sess.UserID, draft.CategoryHint, draft.Direction); err == nil && res.Kind == category.ResolutionUnique {
		sess.Resolved = res.Category
	} else if err != nil {
		e.log.Warn().Err(err).Str("chat_id", sess.ChatID).Msg("eager category resolution failed")
	}

	return ConfirmationPrompt{Summary: summarize(draft, sess.Resolved, e.currency)}, nil
}

// resolveAndProceed settles the category for the pending draft, then either
// commits (unique) or asks the user to choose.
func (e *Engine) resolveAndProceed(ctx context.Context, sess *Session, receivedAt time.Time) (Outbound, error) {
	if sess.Resolved != nil {
		return e.commit(ctx, sess, receivedAt)
	}

	res, err := e.registry.Resolve(ctx, sess.UserID, sess.Draft.CategoryHint, sess.Draft.Direction)
	if err != nil {
		e.log.Error().Err(err).Str("chat_id", sess.ChatID).Msg("category resolution failed")
		sess.State = StateAwaitingConfirmation
		return ConfirmationPrompt{Summary: summarize(sess.Draft, nil, e.currency), Retry: true}, nil
	}

	switch res.Kind {
	case category.ResolutionUnique:
		sess.Resolved = res.Category
		return e.commit(ctx, sess, receivedAt)
	case category.ResolutionAmbiguous:
		sess.State = StateAwaitingCategoryChoice
		sess.Candidates = res.Candidates
		sess.SuggestedName = suggestedName(sess.Draft.CategoryHint)
		return choicePrompt(sess.Candidates, sess.SuggestedName), nil
	default: // NotFound
		sess.State = StateAwaitingCategoryChoice
		sess.Candidates = nil
		sess.SuggestedName = res.SuggestedName
		return choicePrompt(nil, res.SuggestedName), nil
	}
}

// createAndCommit creates the suggested category and commits the draft to it.
func (e *Engine) createAndCommit(ctx context.Context, sess *Session, receivedAt time.Time) (Outbound, error) {
	name := sess.SuggestedName
	if name == "" {
		name = suggestedName(sess.Draft.CategoryHint)
	}

	cat, err := e.registry.Create(ctx, sess.UserID, name, sess.Draft.Direction)
	if err != nil {
		e.log.Error().Err(err).Str("chat_id", sess.ChatID).Str("name", name).Msg("category creation failed")
		return PlainText{Text: "Saving the new category failed. Please try again."}, nil
	}

	sess.Resolved = &cat
	return e.commit(ctx, sess, receivedAt)
}

// commit persists the draft. A storage fault keeps the draft and resolved
// category in the session and drops back to confirmation, so retrying never
// requires re-entering data.
func (e *Engine) commit(ctx context.Context, sess *Session, receivedAt time.Time) (Outbound, error) {
	draft := sess.Draft
	tx := &domain.Transaction{
		OwnerID:    sess.UserID,
		Amount:     draft.Amount,
		Direction:  draft.Direction,
		CategoryID: sess.Resolved.ID,
		OccurredOn: draft.OccurredOn,
		Note:       draft.Note,
		RawText:    draft.RawText,
		CreatedAt:  receivedAt,
	}

	id, err := e.store.CreateTransaction(ctx, tx)
	if err != nil {
		e.log.Error().Err(err).Str("chat_id", sess.ChatID).Msg("transaction commit failed")
		sess.State = StateAwaitingConfirmation
		return ConfirmationPrompt{Summary: summarize(draft, sess.Resolved, e.currency), Retry: true}, nil
	}

	if err := e.store.TouchCategory(ctx, sess.UserID, sess.Resolved.ID, receivedAt); err != nil {
		e.log.Warn().Err(err).Str("category_id", sess.Resolved.ID).Msg("recording category use failed")
	}

	e.log.Info().
		Str("chat_id", sess.ChatID).
		Str("transaction_id", id).
		Float64("amount", draft.Amount).
		Str("direction", string(draft.Direction)).
		Msg("transaction committed")

	summary := summarize(draft, sess.Resolved, e.currency)
	sess.reset(receivedAt)
	return committedText(summary), nil
}

// applyEdit amends one draft field and re-runs normalization on the result.
func (e *Engine) applyEdit(ctx context.Context, sess *Session, act Action, receivedAt time.Time) (Outbound, error) {
	parsed := parsedFromDraft(sess.Draft)

	switch act.Field {
	case EditAmount:
		v, err := strconv.ParseFloat(strings.TrimSpace(act.Value), 64)
		if err != nil {
			sess.reset(receivedAt)
			sess.State = StateAwaitingCorrection
			sess.Defects = []string{fmt.Sprintf("amount: could not read %q as a number", act.Value)}
			return CorrectionPrompt{Defects: sess.Defects}, nil
		}
		parsed.Amount = v
	case EditDate:
		parsed.Date = act.Value
	case EditCategory:
		parsed.CategoryHint = act.Value
		sess.Resolved = nil
	case EditNote:
		parsed.Note = act.Value
	}

	rawText := sess.Draft.RawText
	draft, defects := normalize.Normalize(&parsed, normalize.Context{ReferenceDate: receivedAt}, rawText)
	if len(defects) > 0 {
		sess.reset(receivedAt)
		sess.State = StateAwaitingCorrection
		sess.Defects = defectStrings(defects)
		return CorrectionPrompt{Defects: sess.Defects}, nil
	}

	sess.Draft = draft
	sess.State = StateAwaitingConfirmation
	return ConfirmationPrompt{Summary: summarize(draft, sess.Resolved, e.currency)}, nil
}

// categoryNames lists the user's category names for the extraction prompt,
// seeding the default set on first contact.
func (e *Engine) categoryNames(ctx context.Context, userID string) ([]string, error) {
	cats, err := e.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	if len(cats) == 0 {
		if err := e.registry.SeedDefaults(ctx, userID); err != nil {
			e.log.Warn().Err(err).Str("user_id", userID).Msg("seeding default categories failed")
		} else if cats, err = e.store.ListCategories(ctx, userID); err != nil {
			return nil, fmt.Errorf("listing categories after seeding: %w", err)
		}
	}

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names, nil
}

func parsedFromDraft(d *domain.TransactionDraft) extract.Parsed {
	return extract.Parsed{
		Amount:       d.Amount,
		Direction:    strings.ToLower(string(d.Direction)),
		Date:         d.OccurredOn.Format("2006-01-02"),
		CategoryHint: d.CategoryHint,
		Note:         d.Note,
	}
}

func suggestedName(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "Uncategorized"
	}
	return hint
}

func defectStrings(defects []normalize.Defect) []string {
	out := make([]string, len(defects))
	for i, d := range defects {
		out[i] = d.String()
	}
	return out
}
