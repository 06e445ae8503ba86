package document

import "time"

// Document is the per-(activity, group) record holding the current document
// key and the lock flag. Group 0 means "no grouping": everyone in the course
// shares one document. At most one record exists per (activity, group) pair;
// the key changes every time the backing file content changes so external
// caches invalidate correctly.
type Document struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	ActivityID string    `json:"activityId" bson:"activity"`
	GroupID    int64     `json:"groupId" bson:"groupid"`
	Key        string    `json:"documentKey" bson:"documentkey"`
	Locked     bool      `json:"locked" bson:"locked"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}
