// Package viz draws beam profiles in the terminal.
//
//   - [Canvas]: braille dot canvas, 2x4 dots per character cell
//   - [SideView]: the beam envelope and element positions on a canvas
//
// Styles shared by the CLI and the bench editor live here too.
package viz
