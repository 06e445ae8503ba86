package store

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/events"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/keygen"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/storage"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/metrics"
)

//go:embed blankfiles
var blankFiles embed.FS

var (
	// ErrInitialFileMissing means the activity uses the upload format but no
	// initial file was ever captured. Form validation upstream should make
	// this impossible; checked defensively anyway.
	ErrInitialFileMissing = errors.New("no initial file captured for upload-format activity")

	// ErrUnknownFormat means the activity record carries a format this
	// version does not understand.
	ErrUnknownFormat = errors.New("unknown initial-content format")
)

// FileInfo describes the backing file of a document.
type FileInfo struct {
	ObjectKey string
	Filename  string
	Ext       string
}

// Store owns document records and their backing files. All content mutation
// goes through ReplaceContent, which is the only path that rotates the
// document key.
type Store struct {
	docs   repository.Repository
	files  storage.Storage
	events events.Sink
}

func New(docs repository.Repository, files storage.Storage, sink events.Sink) *Store {
	return &Store{docs: docs, files: files, events: sink}
}

// GetOrCreate resolves the document record and backing file for one
// (activity, group) pair, creating both on first access. Idempotent: a second
// call returns the same record and does not recreate the file.
func (s *Store) GetOrCreate(ctx context.Context, act *activity.Activity, groupID int64) (*document.Document, *FileInfo, error) {
	doc, err := s.docs.GetByActivityGroup(ctx, act.ID, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		doc = &document.Document{
			ActivityID: act.ID,
			GroupID:    groupID,
			Key:        keygen.GenerateKey(),
			Locked:     false,
		}
		if _, cerr := s.docs.Create(ctx, doc); cerr != nil {
			// lost a concurrent creation race; the other writer's record wins
			doc, err = s.docs.GetByActivityGroup(ctx, act.ID, groupID)
			if err != nil {
				return nil, nil, fmt.Errorf("create document record: %w", cerr)
			}
		} else {
			metrics.DocumentsCreated.Inc()
		}
	} else if err != nil {
		return nil, nil, fmt.Errorf("load document record: %w", err)
	}

	file, err := s.loadFile(ctx, act, groupID)
	if err != nil {
		return nil, nil, err
	}
	return doc, file, nil
}

// loadFile finds the backing file for the group area, materializing it per
// the activity's initial-content format when absent.
func (s *Store) loadFile(ctx context.Context, act *activity.Activity, groupID int64) (*FileInfo, error) {
	prefix := storage.GroupPrefix(act.ID, groupID)
	key, err := s.files.FirstKey(ctx, prefix)
	if err == nil {
		return fileInfoFor(key), nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("list group files: %w", err)
	}

	switch act.Format {
	case activity.FormatUpload:
		return s.createFromInitialUpload(ctx, act, prefix)
	case activity.FormatText:
		return s.createFromInitialText(ctx, act, prefix)
	case activity.FormatSpreadsheet, activity.FormatWordProcessor, activity.FormatPresentation:
		return s.createFromTemplate(ctx, act, prefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, act.Format)
	}
}

func (s *Store) createFromInitialUpload(ctx context.Context, act *activity.Activity, prefix string) (*FileInfo, error) {
	src, err := s.files.FirstKey(ctx, storage.InitialPrefix(act.ID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrInitialFileMissing
		}
		return nil, fmt.Errorf("find initial file: %w", err)
	}
	ext := strings.TrimPrefix(path.Ext(src), ".")
	dst := prefix + cleanFilename(act.Name, ext)
	if err := s.files.Copy(ctx, src, dst); err != nil {
		return nil, fmt.Errorf("copy initial file: %w", err)
	}
	return fileInfoFor(dst), nil
}

func (s *Store) createFromInitialText(ctx context.Context, act *activity.Activity, prefix string) (*FileInfo, error) {
	dst := prefix + cleanFilename(act.Name, "txt")
	content := []byte(act.InitialText)
	if err := s.files.Upload(ctx, dst, bytes.NewReader(content), int64(len(content)), "text/plain"); err != nil {
		return nil, fmt.Errorf("write initial text: %w", err)
	}
	return fileInfoFor(dst), nil
}

func (s *Store) createFromTemplate(ctx context.Context, act *activity.Activity, prefix string) (*FileInfo, error) {
	ext := activity.TemplateExt(act.Format)
	dst := prefix + cleanFilename(act.Name, ext)

	// a site-level override template takes precedence over the built-in blank
	src, err := s.files.FirstKey(ctx, storage.TemplatePrefix(activity.TemplateSlot(act.Format)))
	if err == nil {
		if err := s.files.Copy(ctx, src, dst); err != nil {
			return nil, fmt.Errorf("copy template file: %w", err)
		}
		return fileInfoFor(dst), nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("find template file: %w", err)
	}

	blank, err := blankFiles.ReadFile(fmt.Sprintf("blankfiles/blank%s.%s", act.Format, ext))
	if err != nil {
		return nil, fmt.Errorf("read built-in blank file: %w", err)
	}
	if err := s.files.Upload(ctx, dst, bytes.NewReader(blank), int64(len(blank)), ""); err != nil {
		return nil, fmt.Errorf("write blank file: %w", err)
	}
	return fileInfoFor(dst), nil
}

// ReplaceContent overwrites the backing file with the new content and rotates
// the document key. The new bytes land under a temporary object first, so a
// failed upload never clobbers the current file; the key only rotates after
// the swap succeeded. Concurrent saves are last-writer-wins.
func (s *Store) ReplaceContent(ctx context.Context, doc *document.Document, r io.Reader, size int64) error {
	prefix := storage.GroupPrefix(doc.ActivityID, doc.GroupID)
	key, err := s.files.FirstKey(ctx, prefix)
	if err != nil {
		return fmt.Errorf("resolve current file: %w", err)
	}

	tmp := key + "_temp"
	if err := s.files.Upload(ctx, tmp, r, size, ""); err != nil {
		return fmt.Errorf("stage new content: %w", err)
	}
	if err := s.files.Copy(ctx, tmp, key); err != nil {
		s.files.Delete(ctx, tmp)
		return fmt.Errorf("swap new content: %w", err)
	}
	if err := s.files.Delete(ctx, tmp); err != nil {
		return fmt.Errorf("discard staged content: %w", err)
	}

	newKey := keygen.GenerateKey()
	if err := s.docs.SetKey(ctx, doc.ID, newKey); err != nil {
		return fmt.Errorf("rotate document key: %w", err)
	}
	doc.Key = newKey
	doc.UpdatedAt = time.Now()
	return nil
}

// SetLocked flips the lock flag and emits a lock/unlock event. A silent no-op
// when the actor lacks the lock capability.
func (s *Store) SetLocked(ctx context.Context, doc *document.Document, actor *access.Actor, locked bool) error {
	if !access.CanLock(actor) {
		return nil
	}
	if err := s.docs.SetLocked(ctx, doc.ID, locked); err != nil {
		return fmt.Errorf("set lock flag: %w", err)
	}
	doc.Locked = locked

	evType := events.TypeDocumentLocked
	if !locked {
		evType = events.TypeDocumentUnlocked
	}
	return s.events.Publish(ctx, events.Event{
		Type:        evType,
		DocumentID:  doc.ID,
		ActivityID:  doc.ActivityID,
		GroupID:     doc.GroupID,
		DocumentKey: doc.Key,
		ActorID:     actor.ID,
		Time:        time.Now().UTC(),
	})
}

// DeleteForActivity removes every document record and stored file belonging
// to an activity. Called when the owning activity instance is deleted.
func (s *Store) DeleteForActivity(ctx context.Context, activityID string) error {
	if err := s.docs.DeleteByActivity(ctx, activityID); err != nil {
		return fmt.Errorf("delete document records: %w", err)
	}
	if err := s.files.DeletePrefix(ctx, storage.AreaGroup+"/"+activityID+"/"); err != nil {
		return fmt.Errorf("delete group files: %w", err)
	}
	if err := s.files.DeletePrefix(ctx, storage.InitialPrefix(activityID)); err != nil {
		return fmt.Errorf("delete initial files: %w", err)
	}
	return nil
}

// DedupKeys re-keys any document whose key collides with an earlier
// document's key. Key uniqueness is best-effort at creation; this sweep is
// the after-the-fact repair. Returns the number of documents re-keyed.
func (s *Store) DedupKeys(ctx context.Context) (int, error) {
	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	seen := make(map[string]bool, len(docs))
	rekeyed := 0
	for _, d := range docs {
		if !seen[d.Key] {
			seen[d.Key] = true
			continue
		}
		newKey := keygen.GenerateKey()
		if err := s.docs.SetKey(ctx, d.ID, newKey); err != nil {
			return rekeyed, fmt.Errorf("rekey document %s: %w", d.ID, err)
		}
		seen[newKey] = true
		rekeyed++
	}
	return rekeyed, nil
}

func fileInfoFor(objectKey string) *FileInfo {
	name := path.Base(objectKey)
	return &FileInfo{
		ObjectKey: objectKey,
		Filename:  name,
		Ext:       strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")),
	}
}

// cleanFilename flattens the activity name into a safe object name.
func cleanFilename(name, ext string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "\x00", "", "..", "_")
	name = strings.TrimSpace(r.Replace(name))
	if name == "" {
		name = "document"
	}
	if len(name) > activity.NameLengthMax {
		name = name[:activity.NameLengthMax]
	}
	if ext == "" {
		return name
	}
	return name + "." + ext
}
