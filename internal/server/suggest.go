package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/detection"
	"github.com/ironsheep/annotate-mcp/internal/ocr"
)

// suggestResult reports a batch of queued suggestions.
type suggestResult struct {
	Queued       []annotation.Suggestion `json:"queued"`
	Count        int                     `json:"count"`
	PendingTotal int                     `json:"pending_total"`
}

func (s *Server) queue(items []annotation.Suggestion) (interface{}, error) {
	sess, _, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	queued, err := sess.Suggest(items)
	if err != nil {
		return nil, err
	}
	return suggestResult{Queued: queued, Count: len(queued), PendingTotal: len(sess.Suggestions())}, nil
}

type suggestShapesArgs struct {
	Kind      string  `json:"kind"`
	Class     string  `json:"class"`
	MinArea   int     `json:"min_area"`
	Tolerance float64 `json:"tolerance"`
	MinRadius int     `json:"min_radius"`
	MaxRadius int     `json:"max_radius"`
}

func (s *Server) handleSuggestShapes(args json.RawMessage) (interface{}, error) {
	var a suggestShapesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Class == "" {
		return nil, fmt.Errorf("%w: class is required", ErrInvalidArgs)
	}
	_, _, img, err := s.activeImage()
	if err != nil {
		return nil, err
	}

	var items []annotation.Suggestion
	switch a.Kind {
	case "rectangles", "":
		if a.MinArea == 0 {
			a.MinArea = 100
		}
		if a.Tolerance == 0 {
			a.Tolerance = 0.9
		}
		items = detection.SuggestRectangles(img, a.MinArea, a.Tolerance, a.Class)
	case "circles":
		if a.MinRadius == 0 {
			a.MinRadius = 5
		}
		if a.MaxRadius == 0 {
			a.MaxRadius = 50
		}
		if a.MaxRadius < a.MinRadius {
			return nil, fmt.Errorf("%w: max_radius %d below min_radius %d", ErrInvalidArgs, a.MaxRadius, a.MinRadius)
		}
		items = detection.SuggestCircles(img, a.MinRadius, a.MaxRadius, a.Class)
	default:
		return nil, fmt.Errorf("%w: kind must be rectangles or circles, got %q", ErrInvalidArgs, a.Kind)
	}
	return s.queue(items)
}

type suggestSegmentsArgs struct {
	Class   string  `json:"class"`
	Level   *int    `json:"level"`
	Invert  bool    `json:"invert"`
	MinArea float64 `json:"min_area"`
}

func (s *Server) handleSuggestSegments(args json.RawMessage) (interface{}, error) {
	var a suggestSegmentsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Class == "" {
		return nil, fmt.Errorf("%w: class is required", ErrInvalidArgs)
	}
	level := 128
	if a.Level != nil {
		level = *a.Level
	}
	if level < 0 || level > 255 {
		return nil, fmt.Errorf("%w: level must be within [0,255], got %d", ErrInvalidArgs, level)
	}
	_, _, img, err := s.activeImage()
	if err != nil {
		return nil, err
	}
	items := detection.SuggestSegments(img, detection.SegmentOptions{
		Level:   uint8(level),
		Invert:  a.Invert,
		MinArea: a.MinArea,
		Class:   a.Class,
	})
	return s.queue(items)
}

type regionArg struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type suggestTextArgs struct {
	Class         string     `json:"class"`
	Language      string     `json:"language"`
	MinConfidence float64    `json:"min_confidence"`
	Region        *regionArg `json:"region"`
}

func (s *Server) handleSuggestText(args json.RawMessage) (interface{}, error) {
	var a suggestTextArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, _, img, err := s.activeImage()
	if err != nil {
		return nil, err
	}
	region := img.Bounds()
	if a.Region != nil {
		region = image.Rect(a.Region.X, a.Region.Y, a.Region.X+a.Region.Width, a.Region.Y+a.Region.Height)
	}
	// Recognition runs on the decoded slice so multi-frame images OCR the
	// frame being edited.
	items, err := ocr.SuggestTextInRegion(img, region, a.Language, a.MinConfidence, a.Class)
	if err != nil {
		return nil, err
	}
	return s.queue(items)
}

type suggestExternalArgs struct {
	Suggestions []annotation.Suggestion `json:"suggestions"`
}

func (s *Server) handleSuggestExternal(args json.RawMessage) (interface{}, error) {
	var a suggestExternalArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Suggestions) == 0 {
		return nil, fmt.Errorf("%w: suggestions is empty", ErrInvalidArgs)
	}
	return s.queue(a.Suggestions)
}

func (s *Server) handleSuggestionsList() (interface{}, error) {
	sess, _, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	items := sess.Suggestions()
	return map[string]interface{}{"suggestions": items, "count": len(items)}, nil
}

type idsArgs struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleSuggestionsAccept(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a idsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, key, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	cs, err := sess.Accept(a.IDs)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, key, sess, cs)
	return commitResult{Changes: cs, Annotations: sess.Store().Len()}, nil
}

func (s *Server) handleSuggestionsReject(args json.RawMessage) (interface{}, error) {
	var a idsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, _, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	n, err := sess.Reject(a.IDs)
	if err != nil {
		return nil, err
	}
	return map[string]int{"rejected": n, "pending_total": len(sess.Suggestions())}, nil
}
