package tsdigital

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5/util"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/inventory"
	"github.com/ginjaninja78/sdi-invoice-sender/internal/types"
)

// document is an invoice file ready to be sent.
type document struct {
	path    string
	content string // base64
}

type invoicePayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Name    string `json:"name"`
}

type extractRequest struct {
	Invoices      []invoicePayload `json:"invoices"`
	TransmitterID string           `json:"transmitterId"`
	FlowType      string           `json:"flowType"`
}

type submitRequest struct {
	Content            string `json:"content"`
	TransmitterID      string `json:"transmitterId"`
	SenderID           string `json:"senderId"`
	RecipientID        string `json:"recipientId"`
	Name               string `json:"name"`
	FlowType           string `json:"flowType"`
	TransmissionFormat string `json:"transmissionFormat"`
}

// ExtractBaseInfo asks TS Digital to parse the given XML invoices.
//
// Documents the service cannot parse are left out of the result, so it may
// be shorter than paths. Every path must have the .xml extension; otherwise
// ErrNotXML is returned before anything is read or sent.
func (c *Client) ExtractBaseInfo(ctx context.Context, s *Session, paths ...string) ([]types.BaseInfo, error) {
	docs, err := c.load(paths...)
	if err != nil {
		return nil, err
	}
	return c.extract(ctx, s, docs)
}

// Submit sends one XML invoice to the SDI.
//
// The invoice is first run through extraction, which supplies the recipient
// and transmission format. If extraction fails or yields nothing, no
// submission is attempted. Only a 201 response counts as success.
func (c *Client) Submit(ctx context.Context, s *Session, path string) (*types.Outcome, error) {
	docs, err := c.load(path)
	if err != nil {
		return nil, err
	}

	infos, err := c.extract(ctx, s, docs)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		c.logger.Error("no invoice data extracted", "file", path)
		return nil, fmt.Errorf("%w: %s", ErrNoBaseInfo, path)
	}
	info := infos[0]

	name := submissionName(info.ID)
	req, err := c.newRequest(ctx, http.MethodPost, c.consoleURL+"/invoices", submitRequest{
		Content:            docs[0].content,
		TransmitterID:      s.taxID,
		SenderID:           s.taxID,
		RecipientID:        info.RecipientID,
		Name:               name,
		FlowType:           c.flowType,
		TransmissionFormat: info.TransmissionFormat,
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("authorization", s.authorization())

	if err := c.do(req, http.StatusCreated, nil); err != nil {
		return nil, fmt.Errorf("failed to submit %s: %w", path, err)
	}

	c.logger.Info(fmt.Sprintf("%s ===[%s][%s]===> %s",
		info.SenderName, info.InvoiceNumber, info.Date, info.RecipientName),
		"file", path,
	)

	return &types.Outcome{
		Path:               path,
		Name:               name,
		SenderName:         info.SenderName,
		RecipientName:      info.RecipientName,
		RecipientID:        info.RecipientID,
		InvoiceNumber:      info.InvoiceNumber,
		InvoiceDate:        info.Date,
		TransmissionFormat: info.TransmissionFormat,
	}, nil
}

func (c *Client) extract(ctx context.Context, s *Session, docs []document) ([]types.BaseInfo, error) {
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	body := extractRequest{
		Invoices:      make([]invoicePayload, 0, len(docs)),
		TransmitterID: s.taxID,
		FlowType:      c.flowType,
	}
	for i, doc := range docs {
		name := filepath.Base(doc.path)
		body.Invoices = append(body.Invoices, invoicePayload{
			ID:      name + strconv.Itoa(i),
			Content: doc.content,
			Type:    "text/xml",
			Name:    name,
		})
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.consoleURL+"/xmlInvoices/extractBaseInfo", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("authorization", s.authorization())

	var results []types.BaseInfo
	if err := c.do(req, http.StatusOK, &results); err != nil {
		return nil, fmt.Errorf("failed to extract invoice data: %w", err)
	}

	infos := make([]types.BaseInfo, 0, len(results))
	for _, r := range results {
		if r.ErrorExtractingData {
			c.logger.Warn("TS Digital could not read invoice", "id", r.ID)
			continue
		}
		infos = append(infos, r)
	}
	return infos, nil
}

// load checks extensions and reads every document.
func (c *Client) load(paths ...string) ([]document, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no documents given", ErrNotXML)
	}
	for _, p := range paths {
		if !inventory.IsDocument(p) {
			return nil, fmt.Errorf("%w: %s", ErrNotXML, p)
		}
	}

	docs := make([]document, 0, len(paths))
	for _, p := range paths {
		data, err := util.ReadFile(c.fs, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		docs = append(docs, document{
			path:    p,
			content: base64.StdEncoding.EncodeToString(data),
		})
	}
	return docs, nil
}

// submissionName drops the index suffix that extraction appended to the id.
func submissionName(id string) string {
	_, size := utf8.DecodeLastRuneInString(id)
	return id[:len(id)-size]
}
