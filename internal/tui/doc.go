// Package tui holds the interactive screens of wsecho-client.
//
// PickerModel browses the network for advertised servers and returns the
// chosen URL. ChatModel drives one open connection: typed lines are sent as
// text messages and everything received is appended to a scrolling
// transcript until the server closes the connection.
package tui
