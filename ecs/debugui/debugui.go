// Package debugui holds the state behind an interactive ECS debugger: an
// entity browser, a component inspector and frame statistics. It draws
// nothing itself; a front end (such as a Dear ImGui window) reads the
// models here each frame and writes edits back through them.
package debugui
