// Package playground submits crawls and follows them, the way the
// dashboard's playground page does.
//
// A Form holds the options as text. Build turns it into a wire request:
// numeric fields take the leading integer of their text, and
// comma-separated fields become trimmed lists without empty items. A
// Session submits the request, subscribes to the status stream and
// applies each event to a tracker.Tracker. Cancel is optimistic: the
// request is shown as cancelled as soon as the cancel call is made.
package playground
