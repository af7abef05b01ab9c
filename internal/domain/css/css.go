// Package css is the CSS domain facade: each method fixes a protocol method name and
// its result or event type, and forwards to the connection.
package css

import (
	"context"

	"github.com/grantcarthew/cdpctl/internal/cdp"
)

// Event method names.
const (
	EventStyleSheetAdded         = "CSS.styleSheetAdded"
	EventStyleSheetRemoved       = "CSS.styleSheetRemoved"
	EventStyleSheetChanged       = "CSS.styleSheetChanged"
	EventFontsUpdated            = "CSS.fontsUpdated"
	EventMediaQueryResultChanged = "CSS.mediaQueryResultChanged"
)

// Domain exposes CSS commands and events over one connection.
type Domain struct {
	c *cdp.Client
}

// New returns the CSS facade for c.
func New(c *cdp.Client) *Domain {
	return &Domain{c: c}
}

// Enable enables the CSS agent. The agent is not enabled until this returns.
func (d *Domain) Enable(ctx context.Context) error {
	_, err := cdp.Call[struct{}](ctx, d.c, "CSS.enable", nil)
	return err
}

// Disable disables the CSS agent.
func (d *Domain) Disable(ctx context.Context) error {
	_, err := cdp.Call[struct{}](ctx, d.c, "CSS.disable", nil)
	return err
}

// GetStyleSheetText returns the current textual content of a stylesheet.
func (d *Domain) GetStyleSheetText(ctx context.Context, id StyleSheetID) (string, error) {
	res, err := cdp.Call[struct {
		Text string `json:"text"`
	}](ctx, d.c, "CSS.getStyleSheetText", struct {
		StyleSheetID StyleSheetID `json:"styleSheetId"`
	}{id})
	return res.Text, err
}

// SetStyleSheetText replaces the stylesheet text and returns its source map URL, if any.
func (d *Domain) SetStyleSheetText(ctx context.Context, id StyleSheetID, text string) (string, error) {
	res, err := cdp.Call[struct {
		SourceMapURL string `json:"sourceMapURL"`
	}](ctx, d.c, "CSS.setStyleSheetText", struct {
		StyleSheetID StyleSheetID `json:"styleSheetId"`
		Text         string       `json:"text"`
	}{id, text})
	return res.SourceMapURL, err
}

// CollectClassNames returns all class names from the stylesheet.
func (d *Domain) CollectClassNames(ctx context.Context, id StyleSheetID) ([]string, error) {
	res, err := cdp.Call[struct {
		ClassNames []string `json:"classNames"`
	}](ctx, d.c, "CSS.collectClassNames", struct {
		StyleSheetID StyleSheetID `json:"styleSheetId"`
	}{id})
	return res.ClassNames, err
}

// CreateStyleSheet creates a "via inspector" stylesheet in the given frame.
func (d *Domain) CreateStyleSheet(ctx context.Context, frameID string) (StyleSheetID, error) {
	res, err := cdp.Call[struct {
		StyleSheetID StyleSheetID `json:"styleSheetId"`
	}](ctx, d.c, "CSS.createStyleSheet", struct {
		FrameID string `json:"frameId"`
	}{frameID})
	return res.StyleSheetID, err
}

// AddRule inserts a rule with ruleText into the stylesheet at location.
func (d *Domain) AddRule(ctx context.Context, id StyleSheetID, ruleText string, location SourceRange) (*Rule, error) {
	res, err := cdp.Call[struct {
		Rule Rule `json:"rule"`
	}](ctx, d.c, "CSS.addRule", struct {
		StyleSheetID StyleSheetID `json:"styleSheetId"`
		RuleText     string       `json:"ruleText"`
		Location     SourceRange  `json:"location"`
	}{id, ruleText, location})
	if err != nil {
		return nil, err
	}
	return &res.Rule, nil
}

// ForcePseudoState forces pseudo classes on a node whenever its style is computed.
func (d *Domain) ForcePseudoState(ctx context.Context, nodeID int64, classes ...string) error {
	if classes == nil {
		classes = []string{}
	}
	_, err := cdp.Call[struct{}](ctx, d.c, "CSS.forcePseudoState", struct {
		NodeID              int64    `json:"nodeId"`
		ForcedPseudoClasses []string `json:"forcedPseudoClasses"`
	}{nodeID, classes})
	return err
}

// StyleSheetAdded streams styleSheetAdded events.
func (d *Domain) StyleSheetAdded() *cdp.Stream[StyleSheetAddedEvent] {
	return cdp.Subscribe[StyleSheetAddedEvent](d.c, EventStyleSheetAdded)
}

// StyleSheetRemoved streams styleSheetRemoved events.
func (d *Domain) StyleSheetRemoved() *cdp.Stream[StyleSheetRemovedEvent] {
	return cdp.Subscribe[StyleSheetRemovedEvent](d.c, EventStyleSheetRemoved)
}

// StyleSheetChanged streams styleSheetChanged events.
func (d *Domain) StyleSheetChanged() *cdp.Stream[StyleSheetChangedEvent] {
	return cdp.Subscribe[StyleSheetChangedEvent](d.c, EventStyleSheetChanged)
}

// FontsUpdated streams fontsUpdated events.
func (d *Domain) FontsUpdated() *cdp.Stream[FontsUpdatedEvent] {
	return cdp.Subscribe[FontsUpdatedEvent](d.c, EventFontsUpdated)
}

// MediaQueryResultChanged streams mediaQueryResultChanged events.
func (d *Domain) MediaQueryResultChanged() *cdp.Stream[MediaQueryResultChangedEvent] {
	return cdp.Subscribe[MediaQueryResultChangedEvent](d.c, EventMediaQueryResultChanged)
}
