package platform

import (
	"context"
	"fmt"

	"github.com/baikal-ai/baikalctl/internal/gateway"
)

// Documents is the typed view over the backend document collection.
type Documents struct {
	client *gateway.Client
}

func NewDocuments(client *gateway.Client) *Documents {
	return &Documents{client: client}
}

// List returns all documents, newest first as the backend orders them.
func (d *Documents) List(ctx context.Context) ([]DocumentRecord, error) {
	resp, err := d.client.Get(ctx, "/docs/")
	if err != nil {
		return nil, err
	}
	var docs []DocumentRecord
	if err := gateway.DecodeJSON(resp, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Generate asks the backend to produce a document from a prompt and
// returns the stored record.
func (d *Documents) Generate(ctx context.Context, docType DocType, title, contentPrompt string) (DocumentRecord, error) {
	switch docType {
	case DocReport, DocOfficial, DocEmail:
	default:
		return DocumentRecord{}, fmt.Errorf("unknown document type %q", docType)
	}

	resp, err := d.client.Post(ctx, "/docs/generate", map[string]any{
		"doc_type":       docType,
		"title":          title,
		"content_prompt": contentPrompt,
	})
	if err != nil {
		return DocumentRecord{}, err
	}
	var doc DocumentRecord
	if err := gateway.DecodeJSON(resp, &doc); err != nil {
		return DocumentRecord{}, err
	}
	return doc, nil
}

// Delete removes a document.
func (d *Documents) Delete(ctx context.Context, id string) error {
	resp, err := d.client.Delete(ctx, "/docs/"+id)
	if err != nil {
		return err
	}
	return gateway.DecodeJSON(resp, nil)
}
