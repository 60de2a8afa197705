// Package cli is the interactive yearbook client.
//
// It wires configuration, the server API, the camera and an interactive
// REPL. A background watcher pings the server and shows online/offline in
// the prompt.
//
// Commands:
//   - list    print every entry, newest first
//   - submit  add your name, quote and photo (file or camera)
//   - camera  show the active camera; "camera flip" switches front/back
//   - view    open the live full-screen yearbook
//   - qr      print the QR code guests scan to reach the upload form
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
