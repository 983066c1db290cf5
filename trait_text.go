package nametags

import (
	"strings"
	"time"
)

// TextTrait renders the owner's tag template through the configured formatter
// and keeps the passenger text up to date.
type TextTrait struct {
	e        *Entity
	template []string
	repeat   *RepeatHandle
}

// NewTextTrait creates a text trait rendering template for e.
func NewTextTrait(e *Entity, template []string) *TextTrait {
	return &TextTrait{e: e, template: template}
}

// Kind returns TraitText.
func (*TextTrait) Kind() TraitKind { return TraitText }

// Template returns the unrendered template lines.
func (t *TextTrait) Template() []string {
	return t.template
}

// Refresh re-renders the template. Viewers are only sent an update when the
// rendered text differs from what they have.
func (t *TextTrait) Refresh() {
	if t.e.passenger.SetText(t.render()) {
		t.e.pushMetadata()
	}
}

func (t *TextTrait) render() string {
	f := t.e.plugin.Formatter()
	lines := make([]string, len(t.template))
	for i, line := range t.template {
		lines[i] = f.Format(line, t.e.owner)
	}
	return strings.Join(lines, "\n")
}

// refreshEvery schedules Refresh at a fixed interval until the trait is released.
func (t *TextTrait) refreshEvery(interval time.Duration) {
	if interval <= 0 {
		return
	}
	key := JobKey{Owner: t.e.owner.UUID(), Reason: ReasonRefresh}
	t.repeat = t.e.plugin.scheduler.Repeat(key, interval, RunnableFunc(func() {
		t.e.plugin.Dispatch(Event{Kind: EventRefresh, Owner: key.Owner})
	}))
}

// Release stops the periodic refresh.
func (t *TextTrait) Release() {
	t.repeat.Cancel()
}
