package css

import "encoding/json"

// StyleSheetID identifies a stylesheet within one connection.
type StyleSheetID string

// StyleSheetOrigin is where a stylesheet came from.
type StyleSheetOrigin string

const (
	OriginInjected  StyleSheetOrigin = "injected"
	OriginUserAgent StyleSheetOrigin = "user-agent"
	OriginInspector StyleSheetOrigin = "inspector"
	OriginRegular   StyleSheetOrigin = "regular"
)

// StyleSheetHeader is stylesheet metainfo.
type StyleSheetHeader struct {
	StyleSheetID StyleSheetID     `json:"styleSheetId"`
	FrameID      string           `json:"frameId"`
	SourceURL    string           `json:"sourceURL"`
	SourceMapURL string           `json:"sourceMapURL,omitempty"`
	Origin       StyleSheetOrigin `json:"origin"`
	Title        string           `json:"title"`
	OwnerNode    int64            `json:"ownerNode,omitempty"`
	Disabled     bool             `json:"disabled"`
	HasSourceURL bool             `json:"hasSourceURL,omitempty"`
	IsInline     bool             `json:"isInline"`
	StartLine    float64          `json:"startLine"`
	StartColumn  float64          `json:"startColumn"`
	Length       float64          `json:"length"`
}

// SourceRange is a text range within a resource, zero based.
type SourceRange struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// Rule is a CSS rule. Selector and style payloads are kept raw.
type Rule struct {
	StyleSheetID StyleSheetID     `json:"styleSheetId,omitempty"`
	SelectorList json.RawMessage  `json:"selectorList"`
	Origin       StyleSheetOrigin `json:"origin"`
	Style        json.RawMessage  `json:"style"`
	Media        json.RawMessage  `json:"media,omitempty"`
}

// StyleSheetAddedEvent is fired whenever an active document stylesheet is added.
type StyleSheetAddedEvent struct {
	Header StyleSheetHeader `json:"header"`
}

// StyleSheetRemovedEvent is fired whenever an active document stylesheet is removed.
type StyleSheetRemovedEvent struct {
	StyleSheetID StyleSheetID `json:"styleSheetId"`
}

// StyleSheetChangedEvent is fired whenever a stylesheet is changed.
type StyleSheetChangedEvent struct {
	StyleSheetID StyleSheetID `json:"styleSheetId"`
}

// FontsUpdatedEvent is fired whenever a web font gets loaded.
type FontsUpdatedEvent struct {
	Font json.RawMessage `json:"font,omitempty"`
}

// MediaQueryResultChangedEvent is fired whenever a media query result changes.
type MediaQueryResultChangedEvent struct{}
