// Package annotation defines the annotation records produced by the editing
// engine and the per-slice store that holds them.
//
// An Annotation is either a Polygon (a closed outline in pixel coordinates) or
// a Rectangle (an axis-aligned box). Both carry the category id and name of
// their class. Polygons produced by an eraser split also carry a fragment
// Number that stays stable across later edits.
//
// The Store maps class names to ordered annotation lists. Class order and
// record order are preserved, including through JSON, so a list view keeps
// its correspondence with the store.
//
// # Persisted Shape
//
// Records serialize as
//
//	{"id": "...", "segmentation": [x0,y0,x1,y1,...], "category_id": 3,
//	 "category_name": "cell", "number": 2}
//
// with "bbox": [x, y, w, h] in place of "segmentation" for rectangles, and
// "number" omitted when the record has none.
package annotation
