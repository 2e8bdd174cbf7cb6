package domain

import "time"

// AISettings holds the generation parameters attached to a record. They are
// purely descriptive; nothing in the graph validates them.
type AISettings struct {
	NegativePrompt string   `json:"negativePrompt,omitempty"`
	Steps          *int     `json:"steps,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	GuidanceScale  *float64 `json:"guidanceScale,omitempty"`
}

// Record is one image or prompt entry in the collection.
//
// ParentImageID and ChildImageIDs form a symmetric pair: for every record C
// with C.ParentImageID == P.ID, P.ChildImageIDs contains C.ID. The pair is
// maintained by the gallery usecase, never authored independently.
type Record struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags"`
	AIPrompt    string      `json:"aiPrompt,omitempty"`
	AIModel     string      `json:"aiModel,omitempty"`
	AISettings  *AISettings `json:"aiSettings,omitempty"`
	UploadDate  time.Time   `json:"uploadDate"`
	Likes       int         `json:"likes"`
	UserID      string      `json:"userId,omitempty"`

	ParentImageID string   `json:"parentImageId,omitempty"`
	ChildImageIDs []string `json:"childImageIds"`

	IsPlaceholder bool `json:"isPlaceholder,omitempty"`
}

// HasChild reports whether id is already listed among the record's children.
func (r Record) HasChild(id string) bool {
	for _, cid := range r.ChildImageIDs {
		if cid == id {
			return true
		}
	}
	return false
}

// WithChild returns a copy with id added to ChildImageIDs. Adding an id that
// is already present is a no-op, so repeated application cannot produce
// duplicates.
func (r Record) WithChild(id string) Record {
	if r.HasChild(id) {
		return r
	}
	children := make([]string, 0, len(r.ChildImageIDs)+1)
	children = append(children, r.ChildImageIDs...)
	children = append(children, id)
	r.ChildImageIDs = children
	return r
}

// WithoutChild returns a copy with id removed from ChildImageIDs.
func (r Record) WithoutChild(id string) Record {
	children := make([]string, 0, len(r.ChildImageIDs))
	for _, cid := range r.ChildImageIDs {
		if cid != id {
			children = append(children, cid)
		}
	}
	r.ChildImageIDs = children
	return r
}

// Lineage is the derived parent/current/children view of a record. It is
// recomputed per query and never stored.
type Lineage struct {
	Parent   *Record  `json:"parent,omitempty"`
	Current  Record   `json:"current"`
	Children []Record `json:"children"`
}
