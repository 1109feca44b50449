package notify

import (
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Notification types
const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeInfo    = "info"
)

const appName = "litdl"

// Runner executes an external notification command
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Notifier sends desktop notifications about processed books
type Notifier struct {
	enabled bool
	goos    string
	run     Runner
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
}

// New creates a notifier. A disabled notifier drops every message.
func New(enabled bool, log *zap.SugaredLogger) *Notifier {
	return &Notifier{enabled: enabled, goos: runtime.GOOS, run: execRunner, log: log}
}

// Send delivers a notification in the background
func (n *Notifier) Send(title, message, notifyType string) {
	if n == nil || !n.enabled {
		return
	}
	name, args, ok := command(n.goos, title, message, notifyType)
	if !ok {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.run(name, args...); err != nil {
			n.log.Debugw("Notification failed", "command", name, "error", err)
		}
	}()
}

// Wait blocks until pending notifications have been handed off
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

// BookSaved reports a finished book
func (n *Notifier) BookSaved(title, path string) {
	n.Send("Book Saved", title+"\n"+path, TypeSuccess)
}

// BookFailed reports a book that could not be processed
func (n *Notifier) BookFailed(title, reason string) {
	msg := title
	if reason != "" {
		msg += ": " + reason
	}
	n.Send("Book Failed", msg, TypeError)
}

// BatchFinished reports the outcome of processing several URLs
func (n *Notifier) BatchFinished(completed, failed int) {
	msg := "All books saved"
	if failed > 0 {
		msg = "Finished with some failures"
	}
	n.Send("Batch Complete", msg, TypeInfo)
}

// command builds the platform specific notification command
func command(goos, title, message, notifyType string) (string, []string, bool) {
	switch goos {
	case "linux":
		icon := "dialog-information"
		switch notifyType {
		case TypeSuccess:
			icon = "dialog-ok"
		case TypeError:
			icon = "dialog-error"
		}
		return "notify-send", []string{"-i", icon, "-a", appName, title, message}, true
	case "darwin":
		script := `display notification "` + escapeAppleScript(message) + `" with title "` + escapeAppleScript(title) + `"`
		return "osascript", []string{"-e", script}, true
	case "windows":
		script := `
	[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
	[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
	$template = '<toast><visual><binding template="ToastText02"><text id="1">` + escapeXML(title) + `</text><text id="2">` + escapeXML(message) + `</text></binding></visual></toast>'
	$xml = New-Object Windows.Data.Xml.Dom.XmlDocument
	$xml.LoadXml($template)
	$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
	[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("` + appName + `").Show($toast)
	`
		return "powershell", []string{"-Command", script}, true
	}
	return "", nil, false
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeAppleScript(s string) string {
	return appleScriptEscaper.Replace(s)
}

// PowerShell single-quoted strings end at ', so it is escaped too
var xmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
