package coredata

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WebhookNotifier pings the downstream data consumer after a publish.
type WebhookNotifier interface {
	Notify(ctx context.Context) error
}

// ChatNotifier posts operator-facing messages and diagnostic uploads.
type ChatNotifier interface {
	PostMessage(ctx context.Context, channel, text string) error
	UploadFile(ctx context.Context, channel, filename, content, comment string) error
}

// CoordinatorConfig wires the coordinator's collaborators. Nil notifiers
// disable the corresponding side effect.
type CoordinatorConfig struct {
	Webhook       WebhookNotifier
	Chat          ChatNotifier
	Channel       string
	AlertChannel  string
	NotifyTimeout time.Duration
}

// Coordinator orchestrates ingest and publish: validation, transactional
// persistence, the one-way publish flip, and post-commit notifications.
// Notifications run after the durable commit under a short deadline, and
// their failures are logged and swallowed, so publication success never
// depends on delivery.
type Coordinator struct {
	store   *Store
	webhook WebhookNotifier
	chat    ChatNotifier

	channel       string
	alertChannel  string
	notifyTimeout time.Duration

	// Thousands separators for row counts in chat summaries.
	printer *message.Printer
}

func NewCoordinator(store *Store, cfg CoordinatorConfig) *Coordinator {
	timeout := cfg.NotifyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{
		store:         store,
		webhook:       cfg.Webhook,
		chat:          cfg.Chat,
		channel:       cfg.Channel,
		alertChannel:  cfg.AlertChannel,
		notifyTimeout: timeout,
		printer:       message.NewPrinter(language.AmericanEnglish),
	}
}

// Ingest validates a submitted payload and persists it as a new batch.
// Validation failures block every write, no batch and no rows, and upload a
// diagnostic copy of the payload so operators hear about bad submissions
// even though nothing was stored. With revision set (or a payload tagged as
// an edit submission) the batch publishes atomically with its creation.
func (co *Coordinator) Ingest(ctx context.Context, p Payload, raw []byte, revision bool) (Batch, error) {
	if p.Context == nil {
		verr := &ValidationError{Violations: []Violation{{
			Kind:    MissingRequiredField,
			Field:   "context",
			Message: "Payload requires 'context' field",
		}}}
		co.uploadDiagnostic(raw, verr.Error())
		return Batch{}, verr
	}

	if verr := ValidateRows(p.CoreData); verr != nil {
		co.uploadDiagnostic(raw, verr.Error())
		return Batch{}, verr
	}

	rows, err := buildRows(p.CoreData)
	if err != nil {
		co.uploadDiagnostic(raw, err.Error())
		return Batch{}, err
	}
	edits, err := parseStateEdits(p.States)
	if err != nil {
		return Batch{}, err
	}

	publish := revision || strings.EqualFold(p.Context.DataEntryType, dataEntryTypeEdit)

	b := Batch{
		ShiftLead:     p.Context.ShiftLead,
		BatchNote:     p.Context.BatchNote,
		DataEntryType: p.Context.DataEntryType,
		IsRevision:    publish,
	}
	if publish {
		b.ChangedFields = changedFields(p.CoreData)
	}

	if err := co.store.CreateBatch(&b, rows, edits, publish); err != nil {
		return Batch{}, err
	}

	co.postChat(co.ingestSummary(b, len(rows), len(edits)))
	if publish {
		co.notifyWebhook()
	}
	return b, nil
}

// Publish transitions a draft batch to published and fires the post-commit
// notifications. Re-publishing fails with ErrAlreadyPublished.
func (co *Coordinator) Publish(ctx context.Context, batchID int64) (Batch, error) {
	b, err := co.store.PublishBatch(batchID)
	if err != nil {
		return b, err
	}

	co.postChat(co.printer.Sprintf(
		"Batch %d published (%d rows, note: %s)", b.BatchID, len(b.CoreData), b.BatchNote))
	co.notifyWebhook()
	return b, nil
}

// ingestSummary describes a freshly created batch for the ops channel.
func (co *Coordinator) ingestSummary(b Batch, rowCount, editCount int) string {
	kind := "batch"
	if b.IsRevision {
		kind = "revision batch (auto-published)"
	}
	summary := co.printer.Sprintf("New %s %d: %d rows", kind, b.BatchID, rowCount)
	if editCount > 0 {
		summary += co.printer.Sprintf(", %d state edits", editCount)
	}
	if b.ShiftLead != "" {
		summary += ", shift lead " + b.ShiftLead
	}
	return summary
}

func (co *Coordinator) postChat(text string) {
	if co.chat == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), co.notifyTimeout)
	defer cancel()
	if err := co.chat.PostMessage(ctx, co.channel, text); err != nil {
		log.Printf("coredata: chat notification failed: %v", err)
	}
}

func (co *Coordinator) notifyWebhook() {
	if co.webhook == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), co.notifyTimeout)
	defer cancel()
	if err := co.webhook.Notify(ctx); err != nil {
		log.Printf("coredata: webhook notification failed: %v", err)
	}
}

// uploadDiagnostic ships a rejected payload to the alert channel. At most
// one attempt; a failed upload is logged and dropped.
func (co *Coordinator) uploadDiagnostic(raw []byte, reason string) {
	if co.chat == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), co.notifyTimeout)
	defer cancel()
	filename := fmt.Sprintf("rejected_payload_%s.json", uuid.NewString()[:8])
	if err := co.chat.UploadFile(ctx, co.alertChannel, filename, string(raw), reason); err != nil {
		log.Printf("coredata: diagnostic upload failed: %v", err)
	}
}

// changedFields lists the data fields touched by a revision's rows, for the
// batch audit view.
func changedFields(rows []map[string]any) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		names := make([]string, 0, len(row))
		for name := range row {
			names = append(names, name)
		}
		valid, _ := ValidFieldsChecker(names)
		for _, name := range valid {
			if !isNullValue(row[name]) {
				seen[name] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
