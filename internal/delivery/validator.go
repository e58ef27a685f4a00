// Package delivery implements the order file-delivery workflow: the
// read-only pre-check and the file dispatcher that talks to Telegram.
package delivery

import (
	"fmt"

	"github.com/google/uuid"
	"rachmat-backend/internal/models"
	"rachmat-backend/internal/storage"
)

type IssueCode string

const (
	IssueNoClient          IssueCode = "no_client"
	IssueNoTelegramLink    IssueCode = "no_telegram_link"
	IssueNoPatterns        IssueCode = "no_patterns"
	IssuePatternHasNoFiles IssueCode = "pattern_has_no_files"
	IssueFileMissing       IssueCode = "file_missing"
)

type Issue struct {
	Code    IssueCode `json:"code"`
	Message string    `json:"message"`
}

type FileCheck struct {
	PatternID    uuid.UUID `json:"pattern_id"`
	PatternTitle string    `json:"pattern_title"`
	Path         string    `json:"path"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	Exists       bool      `json:"exists"`
}

type ValidationResult struct {
	OK        bool        `json:"ok"`
	Issues    []Issue     `json:"issues,omitempty"`
	FileCount int         `json:"file_count"`
	TotalSize int64       `json:"total_size"`
	Files     []FileCheck `json:"files,omitempty"`
}

// IssueMessages returns the human-readable issue list in check order.
func (r *ValidationResult) IssueMessages() []string {
	messages := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		messages[i] = issue.Message
	}
	return messages
}

type Validator struct {
	store *storage.Store
}

func NewValidator(store *storage.Store) *Validator {
	return &Validator{store: store}
}

// Validate checks whether file delivery may proceed for an eagerly loaded
// order. It accumulates every issue instead of stopping at the first one, so
// the admin sees the complete picture in a single round trip. No side
// effects.
func (v *Validator) Validate(order *models.Order) *ValidationResult {
	result := &ValidationResult{}

	if order.Client == nil {
		result.addIssue(IssueNoClient, "order has no client")
	} else if !order.Client.TelegramChatID.Valid || order.Client.TelegramChatID.String == "" {
		result.addIssue(IssueNoTelegramLink, "client has not linked a Telegram chat")
	}

	patterns := order.DistinctPatterns()
	if len(patterns) == 0 {
		result.addIssue(IssueNoPatterns, "order references no patterns")
	}

	for _, pattern := range patterns {
		if len(pattern.Files) == 0 {
			result.addIssue(IssuePatternHasNoFiles,
				fmt.Sprintf("pattern %q has no files", pattern.Title))
			continue
		}
		for _, file := range pattern.Files {
			exists := v.store.Exists(file.Path)
			if !exists {
				result.addIssue(IssueFileMissing,
					fmt.Sprintf("file %q of pattern %q is missing from storage", file.OriginalName, pattern.Title))
			}
			// The descriptor size is a snapshot from upload time; when the
			// file is present the physical size wins.
			size := file.Size
			if exists {
				if actual, err := v.store.Size(file.Path); err == nil {
					size = actual
				}
			}
			result.Files = append(result.Files, FileCheck{
				PatternID:    pattern.ID,
				PatternTitle: pattern.Title,
				Path:         file.Path,
				OriginalName: file.OriginalName,
				Size:         size,
				Exists:       exists,
			})
			result.FileCount++
			result.TotalSize += size
		}
	}

	result.OK = len(result.Issues) == 0
	return result
}

func (r *ValidationResult) addIssue(code IssueCode, message string) {
	r.Issues = append(r.Issues, Issue{Code: code, Message: message})
}
