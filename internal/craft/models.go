package craft

import (
	"strings"

	"github.com/mrlokans/papersync/internal/mapper"
)

// Collection is a typed table of items in the destination.
type Collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type collectionsResponse struct {
	Items []Collection `json:"items"`
}

type schemaOption struct {
	Name string `json:"name"`
}

type schemaProperty struct {
	Name    string         `json:"name"`
	Key     string         `json:"key"`
	Type    string         `json:"type"`
	Options []schemaOption `json:"options,omitempty"`
}

type schemaResponse struct {
	Properties []schemaProperty `json:"properties"`
}

// wireFieldTypes maps API property types onto mapper field types.
var wireFieldTypes = map[string]mapper.FieldType{
	"text":         mapper.FieldShortText,
	"long_text":    mapper.FieldLongText,
	"number":       mapper.FieldNumber,
	"url":          mapper.FieldURL,
	"date":         mapper.FieldDate,
	"select":       mapper.FieldSingleChoice,
	"multi_select": mapper.FieldMultiChoice,
}

type collectionItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type itemsResponse struct {
	Items []collectionItem `json:"items"`
}

type newItem struct {
	Title      string             `json:"title"`
	Properties mapper.PropertyMap `json:"properties,omitempty"`
}

type createItemsRequest struct {
	Items []newItem `json:"items"`
}

// Block is a unit of document content. Pages are blocks of type "page".
type Block struct {
	ID       string  `json:"id,omitempty"`
	Type     string  `json:"type"`
	Title    string  `json:"title,omitempty"`
	Markdown string  `json:"markdown,omitempty"`
	Content  []Block `json:"content,omitempty"`
}

const (
	blockTypeText = "text"
	blockTypePage = "page"
)

// PageTitle returns the trimmed title of a page block.
func (b Block) PageTitle() string {
	if t := strings.TrimSpace(b.Title); t != "" {
		return t
	}
	return strings.TrimSpace(strings.TrimLeft(b.Markdown, "# "))
}

type blockPosition struct {
	Position string `json:"position"`
	PageID   string `json:"pageId,omitempty"`
}

type insertBlocksRequest struct {
	Blocks   []Block       `json:"blocks"`
	Position blockPosition `json:"position"`
}

type createdRef struct {
	ID string `json:"id"`
}

type createdResponse struct {
	Items []createdRef `json:"items"`
}

func (r createdResponse) firstID() string {
	if len(r.Items) == 0 {
		return ""
	}
	return r.Items[0].ID
}
