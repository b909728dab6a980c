package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"roomsync/client"
)

type view struct {
	screen tcell.Screen
	detail string
	cursor int
}

var (
	styleSelf   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleRemote = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleIdle   = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	styleBar    = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
)

func (v *view) onNotification(n client.Notification) {
	switch n := n.(type) {
	case client.StateChanged:
		v.detail = fmt.Sprintf("%s -> %s", n.From, n.To)
	case client.ShowProfile:
		v.detail = fmt.Sprintf("%s: %s", n.Profile.Username, n.Profile.About)
	case client.SelfProfileChanged:
		v.detail = "profile: " + n.Profile.Username
	case client.ObjectInteraction:
		v.detail = fmt.Sprintf("%s %s %s", n.PlayerID, n.Action, n.ObjectID)
	}
}

func (v *view) draw(local client.LocalActor, remotes []client.RenderState, online int, state client.State) {
	s := v.screen
	s.Clear()
	w, h := s.Size()

	for _, r := range remotes {
		style := styleIdle
		if r.IsMoving {
			style = styleRemote
		}
		v.actor(int(r.X/cellW), int(r.Y/cellH), glyph(r.Direction), r.Name, style, w, h)
	}
	v.actor(int(local.Position.X/cellW), int(local.Position.Y/cellH), glyph(local.Direction), local.DisplayName, styleSelf, w, h)

	bar := fmt.Sprintf(" %s | online %d | arrows move, tab profile, i interact, q quit ", state, online)
	if v.detail != "" {
		bar += "| " + v.detail
	}
	for x := 0; x < w; x++ {
		s.SetContent(x, h-1, ' ', nil, styleBar)
	}
	v.text(0, h-1, bar, styleBar)
	s.Show()
}

func (v *view) actor(x, y int, r rune, label string, style tcell.Style, w, h int) {
	if x < 0 || y < 0 || x >= w || y >= h-1 {
		return
	}
	v.screen.SetContent(x, y, r, nil, style)
	v.text(x+2, y, label, style)
}

func (v *view) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func glyph(d client.Direction) rune {
	switch d {
	case client.DirUp:
		return '^'
	case client.DirLeft:
		return '<'
	case client.DirRight:
		return '>'
	default:
		return 'v'
	}
}
