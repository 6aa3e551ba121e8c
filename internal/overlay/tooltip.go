package overlay

import (
	"time"

	"github.com/pmorrow/svgdeck/internal/annotation"
)

// PlaceTooltip positions a tooltip of the given size near an anchor
// point, clamped so it never overflows the viewport and keeps the edge
// margin on both axes. The tooltip opens below-right of the anchor and
// flips above when there is no room underneath.
func PlaceTooltip(anchorX, anchorY, tipW, tipH float64, vp Viewport) annotation.Position {
	const gap = 12

	left := anchorX + gap
	if left+tipW > vp.Width-edgeMargin {
		left = vp.Width - edgeMargin - tipW
	}
	left = clamp(left, edgeMargin, vp.Width-edgeMargin)

	top := anchorY + gap
	if top+tipH > vp.Height-edgeMargin {
		top = anchorY - gap - tipH
	}
	top = clamp(top, edgeMargin, vp.Height-edgeMargin)

	return annotation.Position{
		Left: annotation.Px(left),
		Top:  annotation.Px(top),
	}
}

// TooltipController enforces the hover contract: a single visible
// tooltip, hidden after a short grace delay on pointer-leave unless the
// pointer moved onto the tooltip itself.
//
// The controller is driven by pointer events plus Tick, which applies
// any due hide. The clock is injectable for tests.
type TooltipController struct {
	grace       time.Duration
	now         func() time.Time
	visible     string
	hideAt      time.Time
	overTooltip bool
}

// NewTooltipController uses a 300ms grace delay and the wall clock.
func NewTooltipController() *TooltipController {
	return &TooltipController{
		grace: 300 * time.Millisecond,
		now:   time.Now,
	}
}

// PointerEnter shows the tooltip for the hovered record, replacing any
// other visible tooltip and cancelling a pending hide.
func (c *TooltipController) PointerEnter(created string) {
	c.visible = created
	c.hideAt = time.Time{}
	c.overTooltip = false
}

// PointerLeave schedules the hide after the grace delay.
func (c *TooltipController) PointerLeave() {
	if c.visible == "" || c.overTooltip {
		return
	}
	c.hideAt = c.now().Add(c.grace)
}

// EnterTooltip marks the pointer as inside the tooltip, keeping it open
// so rich content stays interactive.
func (c *TooltipController) EnterTooltip() {
	c.overTooltip = true
	c.hideAt = time.Time{}
}

// LeaveTooltip re-arms the grace delay once the pointer exits the
// tooltip body.
func (c *TooltipController) LeaveTooltip() {
	c.overTooltip = false
	if c.visible != "" {
		c.hideAt = c.now().Add(c.grace)
	}
}

// Tick applies a due hide and returns the currently visible record
// identity, or "" when no tooltip shows.
func (c *TooltipController) Tick() string {
	if !c.hideAt.IsZero() && !c.now().Before(c.hideAt) {
		c.visible = ""
		c.hideAt = time.Time{}
	}
	return c.visible
}
