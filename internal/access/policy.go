package access

import (
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document"
)

// Capability names, kept identical to the host plugin's capability keys so
// the LMS can forward its own capability evaluation verbatim.
const (
	CapLock       = "mod/onlyoffice:lock"
	CapEditLocked = "mod/onlyoffice:editlocked"
	CapView       = "mod/onlyoffice:view"
	CapManage     = "moodle/course:manageactivities"
)

// Actor is the explicit subject of every policy decision: the user's LMS
// identity plus a snapshot of their group memberships and granted
// capabilities, as asserted by the signed launch or callback token.
type Actor struct {
	ID           string
	Name         string
	Groups       []int64
	Capabilities []string
}

// HasCapability reports whether the actor holds the named capability.
func (a *Actor) HasCapability(name string) bool {
	for _, c := range a.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// InGroup reports whether the actor is a member of the given group.
func (a *Actor) InGroup(groupID int64) bool {
	for _, g := range a.Groups {
		if g == groupID {
			return true
		}
	}
	return false
}

// CanLock reports whether the actor may lock or unlock documents.
func CanLock(a *Actor) bool {
	return a.HasCapability(CapLock)
}

// CanEditLocked reports whether the actor may edit documents regardless of
// lock state and group membership.
func CanEditLocked(a *Actor) bool {
	return a.HasCapability(CapEditLocked)
}

// IsLockedFor reports whether the document is locked to this actor. The lock
// flag and group isolation form a single edit gate: an actor outside the
// document's group is denied regardless of the lock flag, and the override
// capability bypasses both.
func IsLockedFor(a *Actor, doc *document.Document) bool {
	if CanEditLocked(a) {
		return false
	}
	notInGroup := doc.GroupID != 0 && !a.InGroup(doc.GroupID)
	return doc.Locked || notInGroup
}

// Permissions is the per-document permission set handed to the editor.
type Permissions struct {
	Edit     bool `json:"edit"`
	Print    bool `json:"print"`
	Download bool `json:"download"`
}

// PermissionsFor computes the editor permissions for the actor on this
// document. Print and download come from the activity's static configuration.
func PermissionsFor(act *activity.Activity, doc *document.Document, a *Actor) Permissions {
	return Permissions{
		Edit:     !IsLockedFor(a, doc),
		Print:    act.CanPrint,
		Download: act.CanDownload,
	}
}
