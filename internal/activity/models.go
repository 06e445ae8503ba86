package activity

import "time"

// Initial-content formats. The format is fixed at creation time: it decides
// how the backing file of each (activity, group) document is materialized on
// first access.
const (
	FormatUpload        = "upload"
	FormatText          = "text"
	FormatSpreadsheet   = "spreadsheet"
	FormatWordProcessor = "wordprocessor"
	FormatPresentation  = "presentation"
)

// Display modes for the activity placement.
const (
	DisplayCurrent = "current"
	DisplayNew     = "new"
)

// NameLengthMax caps the activity display name.
const NameLengthMax = 64

// Activity is one placement of the document editor within a course.
type Activity struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	CourseID    string `json:"courseId" bson:"courseid"`
	Name        string `json:"name" bson:"name"`
	Intro       string `json:"intro,omitempty" bson:"intro,omitempty"`
	Format      string `json:"format" bson:"format"`
	InitialText string `json:"initialText,omitempty" bson:"initialtext,omitempty"`

	Display            string `json:"display" bson:"display"`
	DisplayName        bool   `json:"displayName" bson:"displayname"`
	DisplayDescription bool   `json:"displayDescription" bson:"displaydescription"`
	Width              int    `json:"width" bson:"width"`
	Height             int    `json:"height" bson:"height"`

	CanDownload bool `json:"canDownload" bson:"candownload"`
	CanPrint    bool `json:"canPrint" bson:"canprint"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ValidFormat reports whether f is one of the supported initial-content
// formats.
func ValidFormat(f string) bool {
	switch f {
	case FormatUpload, FormatText, FormatSpreadsheet, FormatWordProcessor, FormatPresentation:
		return true
	}
	return false
}

// TemplateSlot returns the site-level template slot for a blank-template
// format, or 0 when the format has no template slot.
func TemplateSlot(format string) int {
	switch format {
	case FormatSpreadsheet:
		return 1
	case FormatWordProcessor:
		return 2
	case FormatPresentation:
		return 3
	}
	return 0
}

// TemplateExt returns the file extension used for documents created from a
// blank-template format.
func TemplateExt(format string) string {
	switch format {
	case FormatSpreadsheet:
		return "xlsx"
	case FormatWordProcessor:
		return "docx"
	case FormatPresentation:
		return "pptx"
	}
	return ""
}
