package export

import (
	"context"
	"fmt"
	"time"

	"github.com/dgallion1/lessonslice/internal/pathstore"
)

// PathstoreSink stores exports in pathstore. A lesson lives under
// <prefix>/<id>: "meta" holds the file name and record count, "file" the
// full body, and "sections/<key>" one node per record linked from "file".
type PathstoreSink struct {
	Client *pathstore.Client
	Prefix string
}

// LessonKey is the pathstore prefix for a lesson's nodes.
func LessonKey(prefix string, id int) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}

func (s PathstoreSink) Write(ctx context.Context, f File) error {
	base := LessonKey(s.Prefix, f.LessonID)
	source := "lessonslice:" + f.Name
	fileKey := base + "/file"

	if err := s.Client.PutNode(ctx, fileKey, pathstore.NodeRequest{
		Value:  string(f.Content()),
		Source: source,
	}); err != nil {
		return fmt.Errorf("store %s: %w", f.Name, err)
	}

	for _, r := range f.Records {
		sectionKey := base + "/sections/" + r.Key
		if err := s.Client.PutNode(ctx, sectionKey, pathstore.NodeRequest{
			Value: map[string]any{
				"key":       r.Key,
				"html":      r.HTML,
				"lesson_id": r.LessonID,
				"position":  r.Position,
			},
			Source: source,
		}); err != nil {
			return fmt.Errorf("store section %s: %w", r.Key, err)
		}
		if err := s.Client.PutLink(ctx, pathstore.LinkRequest{
			From:    fileKey,
			To:      sectionKey,
			Weight:  1,
			Summary: fmt.Sprintf("section %d of %s", r.Position, f.Name),
		}); err != nil {
			return fmt.Errorf("link section %s: %w", r.Key, err)
		}
	}

	return s.Client.PutNode(ctx, base+"/meta", pathstore.NodeRequest{
		Value: map[string]any{
			"filename":    f.Name,
			"lesson_id":   f.LessonID,
			"sections":    len(f.Records),
			"exported_at": time.Now().UTC().Format(time.RFC3339),
		},
		MergeMode: "replace",
		Source:    source,
	})
}
