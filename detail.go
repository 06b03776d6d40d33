package main

import "strings"

// detailCursor is the bounded position pointer over one record state's
// currently filtered row ordering. Positions are 1-based; the invariant
// 1 <= position <= total holds whenever the cursor is open.
type detailCursor struct {
	state    recordState
	position int
	total    int
	open     bool
}

// Open places the cursor. Out-of-range positions are rejected and leave the
// cursor untouched.
func (c *detailCursor) Open(state recordState, position, total int) bool {
	if position < 1 || position > total {
		return false
	}
	c.state = state
	c.position = position
	c.total = total
	c.open = true
	return true
}

// Next advances by one, a no-op at the last position.
func (c *detailCursor) Next() bool {
	if !c.HasNext() {
		return false
	}
	return c.Open(c.state, c.position+1, c.total)
}

// Previous steps back by one, a no-op at position 1.
func (c *detailCursor) Previous() bool {
	if !c.HasPrevious() {
		return false
	}
	return c.Open(c.state, c.position-1, c.total)
}

func (c *detailCursor) HasNext() bool {
	return c.open && c.position+1 <= c.total
}

func (c *detailCursor) HasPrevious() bool {
	return c.open && c.position > 1
}

func (c *detailCursor) Close() {
	*c = detailCursor{}
}

func (c *detailCursor) IsOpen() bool {
	return c.open
}

// Resync clamps the cursor after the underlying view shrank, closing it when
// nothing is left to show.
func (c *detailCursor) Resync(total int) {
	if !c.open {
		return
	}
	if total < 1 {
		c.Close()
		return
	}
	c.total = total
	if c.position > total {
		c.position = total
	}
}

// addressPath mirrors the platform's addressable location: a base path for
// the open table plus an optional trailing detail segment. Navigating
// between records rewrites the segment in place; there is one logical
// "viewing detail" state, not one history entry per step.
type addressPath struct {
	base   []string
	detail string
}

func (a *addressPath) SetBase(segments ...string) {
	a.base = append([]string(nil), segments...)
}

func (a *addressPath) OpenDetail(id string) {
	a.detail = id
}

func (a *addressPath) CloseDetail() {
	a.detail = ""
}

func (a *addressPath) DetailID() (string, bool) {
	if a.detail == "" {
		return "", false
	}
	return a.detail, true
}

func (a *addressPath) String() string {
	segments := append([]string(nil), a.base...)
	if a.detail != "" {
		segments = append(segments, "detail", a.detail)
	}
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}
