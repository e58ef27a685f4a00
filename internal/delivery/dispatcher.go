package delivery

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"rachmat-backend/internal/models"
	"rachmat-backend/internal/storage"
	"rachmat-backend/internal/telegram"
)

// Attempt is one delivery try for one file. The full attempt log is returned
// to the caller so it can be persisted and inspected after a failure.
type Attempt struct {
	PatternID    uuid.UUID
	FilePath     string
	OriginalName string
	Attempt      int
	Success      bool
	Error        string
}

type Result struct {
	OK         bool
	Sent       int
	Skipped    int
	FailedFile string
	Error      string
	Attempts   []Attempt
}

type Dispatcher struct {
	tg         *telegram.Client
	store      *storage.Store
	maxRetries int
	backoff    time.Duration
}

func NewDispatcher(tg *telegram.Client, store *storage.Store, maxRetries int, backoff time.Duration) *Dispatcher {
	return &Dispatcher{
		tg:         tg,
		store:      store,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

type pendingFile struct {
	pattern *models.Pattern
	file    models.PatternFile
}

// Dispatch sends every file of every resolved line item to the client's
// Telegram chat, one document per file. The same pattern purchased twice is
// sent twice; files are never bundled. alreadySent holds file paths confirmed
// delivered by an earlier run of the same order, which are skipped instead of
// redelivered. Files that went out before a later failure are not retracted;
// the admin retries the whole operation and the skip set absorbs duplicates.
// The skip set is keyed by path, so on a retry one delivered copy marks every
// duplicate line item of the same file as delivered. The client already holds
// the identical file, so the extra copies are not sent again.
func (d *Dispatcher) Dispatch(order *models.Order, alreadySent map[string]bool) *Result {
	result := &Result{}

	if order.Client == nil || !order.Client.TelegramChatID.Valid {
		result.Error = "order has no telegram destination"
		return result
	}
	chatID := order.Client.TelegramChatID.String

	if _, err := d.tg.GetChat(chatID); err != nil {
		result.Error = fmt.Sprintf("telegram chat unreachable: %v", err)
		return result
	}

	var files []pendingFile
	for _, item := range order.ResolvedLineItems() {
		if item.Pattern == nil {
			continue
		}
		for _, file := range item.Pattern.Files {
			files = append(files, pendingFile{pattern: item.Pattern, file: file})
		}
	}

	total := len(files)
	for i, pf := range files {
		if alreadySent[pf.file.Path] {
			result.Skipped++
			continue
		}

		caption := fmt.Sprintf("%s (file %d of %d)", pf.pattern.Title, i+1, total)
		if ok := d.sendWithRetries(chatID, pf, caption, result); !ok {
			result.FailedFile = pf.file.Path
			return result
		}
		result.Sent++
	}

	if result.Sent > 0 {
		// Best effort; the files are already out.
		summary := fmt.Sprintf("Your order is complete: %d file(s) delivered.", result.Sent)
		if _, err := d.tg.SendMessage(chatID, summary); err != nil {
			log.Printf("Warning: failed to send delivery summary to chat %s: %v", chatID, err)
		}
	}

	result.OK = true
	return result
}

func (d *Dispatcher) sendWithRetries(chatID string, pf pendingFile, caption string, result *Result) bool {
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		err := d.sendOnce(chatID, pf, caption)
		record := Attempt{
			PatternID:    pf.pattern.ID,
			FilePath:     pf.file.Path,
			OriginalName: pf.file.OriginalName,
			Attempt:      attempt,
			Success:      err == nil,
		}
		if err != nil {
			record.Error = err.Error()
		}
		result.Attempts = append(result.Attempts, record)

		if err == nil {
			return true
		}
		if attempt < d.maxRetries {
			time.Sleep(d.backoff)
		}
	}
	return false
}

func (d *Dispatcher) sendOnce(chatID string, pf pendingFile, caption string) error {
	data, err := d.store.Read(pf.file.Path)
	if err != nil {
		return err
	}
	_, err = d.tg.SendDocument(chatID, pf.file.OriginalName, caption, data)
	return err
}
