// Package prefs renders the email settings panel of the preferences page.
//
// The panel shows a user's notification address, the notification toggle and
// their check-in aliases. It starts read-only; Edit switches the lockable
// inputs to editable ones and Save or Cancel switch back. Values are read
// from and written to a Model, which owns loading and persistence.
package prefs
