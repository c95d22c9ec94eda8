package zotero

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Creator is one author/editor entry on a record.
type Creator struct {
	CreatorType string `json:"creatorType"`
	Name        string `json:"name,omitempty"` // Single-field form, e.g. institutions
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
}

// Tag is a free-text label attached to a record.
type Tag struct {
	Tag  string `json:"tag"`
	Type int    `json:"type,omitempty"`
}

// Record is a bibliographic item as returned by the items endpoints.
type Record struct {
	Key              string    `json:"key"`
	ItemType         string    `json:"itemType"`
	Title            string    `json:"title"`
	Creators         []Creator `json:"creators"`
	Date             string    `json:"date"`
	DateAdded        string    `json:"dateAdded"`
	PublicationTitle string    `json:"publicationTitle"`
	URL              string    `json:"url"`
	DOI              string    `json:"DOI"`
	AbstractNote     string    `json:"abstractNote"`
	Tags             []Tag     `json:"tags"`
}

// TagNames returns the raw tag strings in order.
func (r Record) TagNames() []string {
	names := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		names = append(names, t.Tag)
	}
	return names
}

// Folder is a Zotero collection.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// Group is a shared library the key has access to.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GroupFolders pairs a group with its folders.
type GroupFolders struct {
	GroupID   string   `json:"groupId"`
	GroupName string   `json:"groupName"`
	Folders   []Folder `json:"folders"`
}

// KeyInfo is the response of /keys/current.
type KeyInfo struct {
	Key      string `json:"key"`
	UserID   int64  `json:"userID"`
	Username string `json:"username"`
}

type itemEnvelope struct {
	Key  string `json:"key"`
	Data Record `json:"data"`
}

type collectionEnvelope struct {
	Key  string `json:"key"`
	Data struct {
		Key  string `json:"key"`
		Name string `json:"name"`
		// false for top-level collections, otherwise the parent key
		ParentCollection json.RawMessage `json:"parentCollection"`
	} `json:"data"`
}

func (c collectionEnvelope) folder() Folder {
	f := Folder{ID: c.Key, Name: c.Data.Name}
	if f.ID == "" {
		f.ID = c.Data.Key
	}
	var parent string
	if err := json.Unmarshal(c.Data.ParentCollection, &parent); err == nil {
		f.ParentID = parent
	}
	return f
}

type groupEnvelope struct {
	ID   int64 `json:"id"`
	Data struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

func (g groupEnvelope) group() Group {
	id := g.ID
	if id == 0 {
		id = g.Data.ID
	}
	return Group{ID: fmt.Sprintf("%d", id), Name: g.Data.Name}
}

// LibraryType distinguishes personal and group libraries.
type LibraryType string

const (
	LibraryUser  LibraryType = "user"
	LibraryGroup LibraryType = "group"
)

// FolderSelector identifies what a pass reads: a personal folder, a whole
// group library, or a folder inside a group.
type FolderSelector struct {
	Library   LibraryType
	GroupID   string
	FolderKey string
}

// ParseFolderSelector accepts "user:<key>", a bare "<key>", "group:<id>" and
// "group:<id>:<key>". An empty string selects the whole personal library.
func ParseFolderSelector(s string) (FolderSelector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FolderSelector{Library: LibraryUser}, nil
	}

	parts := strings.Split(s, ":")
	switch {
	case len(parts) == 1:
		return FolderSelector{Library: LibraryUser, FolderKey: parts[0]}, nil
	case parts[0] == string(LibraryUser) && len(parts) == 2:
		return FolderSelector{Library: LibraryUser, FolderKey: parts[1]}, nil
	case parts[0] == string(LibraryGroup) && len(parts) == 2 && parts[1] != "":
		return FolderSelector{Library: LibraryGroup, GroupID: parts[1]}, nil
	case parts[0] == string(LibraryGroup) && len(parts) == 3 && parts[1] != "":
		return FolderSelector{Library: LibraryGroup, GroupID: parts[1], FolderKey: parts[2]}, nil
	}
	return FolderSelector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
}

func (s FolderSelector) String() string {
	if s.Library == LibraryGroup {
		if s.FolderKey == "" {
			return "group:" + s.GroupID
		}
		return "group:" + s.GroupID + ":" + s.FolderKey
	}
	if s.FolderKey == "" {
		return ""
	}
	return "user:" + s.FolderKey
}
