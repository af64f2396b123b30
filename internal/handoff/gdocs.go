package handoff

import (
	"context"
	"fmt"

	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const docsLinkFormat = "https://docs.google.com/document/d/%s/edit"

// GoogleDocs creates questionnaire documents through the Docs API and
// shares them through the Drive API
type GoogleDocs struct {
	docs  *docs.Service
	drive *drive.Service
}

var _ DocumentService = (*GoogleDocs)(nil)

// NewGoogleDocs creates both API clients with the same options, typically
// option.WithCredentialsFile.
func NewGoogleDocs(ctx context.Context, opts ...option.ClientOption) (*GoogleDocs, error) {
	opts = append([]option.ClientOption{option.WithScopes(docs.DocumentsScope, drive.DriveFileScope)}, opts...)

	docsService, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docs client: %w", err)
	}
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}

	return &GoogleDocs{docs: docsService, drive: driveService}, nil
}

func (g *GoogleDocs) Create(ctx context.Context, doc *Document, shareWith string) (string, error) {
	created, err := g.docs.Documents.Create(&docs.Document{Title: doc.Title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	update := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     doc.Text(),
			},
		}},
	}
	if _, err := g.docs.Documents.BatchUpdate(created.DocumentId, update).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write document %s: %w", created.DocumentId, err)
	}

	if shareWith != "" {
		permission := &drive.Permission{
			Type:         "user",
			Role:         "writer",
			EmailAddress: shareWith,
		}
		if _, err := g.drive.Permissions.Create(created.DocumentId, permission).
			SendNotificationEmail(false).
			Context(ctx).
			Do(); err != nil {
			return "", fmt.Errorf("share document %s: %w", created.DocumentId, err)
		}
	}

	return fmt.Sprintf(docsLinkFormat, created.DocumentId), nil
}
