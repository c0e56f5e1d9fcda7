package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"addresswatch/internal/addrscan"
)

// maxMessageLength is the transport's hard cap on message size.
const maxMessageLength = 4096

// explorerTxURL links a transaction hash to the public explorer.
const explorerTxURL = "https://hypurrscan.io/tx/"

// nativeToken is the display symbol for on-chain balances.
const nativeToken = "HYPE"

// shortAddress abbreviates an address for display, keeping both ends.
func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// shortHash abbreviates a transaction hash for display.
func shortHash(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:8] + "..." + hash[len(hash)-6:]
}

// percentSuffix renders the relative balance change, e.g. " (+12.5%)".
// A zero old balance has no meaningful percentage, so it renders nothing.
func percentSuffix(old, delta decimal.Decimal) string {
	if old.IsZero() {
		return ""
	}

	pct := delta.Div(old).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return fmt.Sprintf(" (%+.1f%%)", pct)
}

// formatBalanceChange renders a balance movement notification.
func formatBalanceChange(c addrscan.Change) string {
	delta := c.NewBalance.Sub(c.OldBalance)

	emoji, headline := "📈", "Balance increased"
	if delta.IsNegative() {
		emoji, headline = "📉", "Balance decreased"
	}

	return strings.TrimSpace(fmt.Sprintf(`
%s *%s*

Address: `+"`%s`"+`
Change: %s %s%s
Balance: %s → %s %s
`,
		emoji, headline,
		shortAddress(c.Address),
		delta.StringFixed(4), nativeToken, percentSuffix(c.OldBalance, delta),
		c.OldBalance.StringFixed(4), c.NewBalance.StringFixed(4), nativeToken,
	))
}

// formatInitial renders the first-observation notification sent when an
// address enters monitoring.
func formatInitial(c addrscan.Change) string {
	return strings.TrimSpace(fmt.Sprintf(`
👁 *Now monitoring*

Address: `+"`%s`"+`
Balance: %s %s
Transactions: %d
`,
		shortAddress(c.Address),
		c.NewBalance.StringFixed(4), nativeToken,
		c.TransactionCount,
	))
}

// txEmoji maps a transaction direction to its display emoji.
func txEmoji(d addrscan.TxDirection) string {
	switch d {
	case addrscan.TxDirectionOutgoing:
		return "🔄"
	case addrscan.TxDirectionIncoming:
		return "💰"
	default:
		return "❓"
	}
}

// txHeadline describes a transaction direction in plain words.
func txHeadline(d addrscan.TxDirection) string {
	switch d {
	case addrscan.TxDirectionOutgoing:
		return "Funds sent"
	case addrscan.TxDirectionIncoming:
		return "Funds received"
	default:
		return "Activity detected"
	}
}

// formatTransaction renders a new-transaction notification with an
// explorer link when the hash is known.
func formatTransaction(c addrscan.Change) string {
	tx := c.Tx

	msg := strings.TrimSpace(fmt.Sprintf(`
%s *New transaction: %s*

Address: `+"`%s`"+`
Hash: `+"`%s`"+`
Amount: %s %s
Block: %d
`,
		txEmoji(tx.Direction), txHeadline(tx.Direction),
		shortAddress(c.Address),
		shortHash(tx.Hash),
		tx.Value.StringFixed(4), nativeToken,
		tx.Block,
	))

	if tx.Hash != "" {
		msg += fmt.Sprintf("\n\n🔗 [View on explorer](%s%s)", explorerTxURL, tx.Hash)
	}

	return msg
}

// FormatChange renders a detected change into a Markdown message ready
// for delivery.
func FormatChange(c addrscan.Change) string {
	var msg string
	switch c.Type {
	case addrscan.ChangeTypeInitial:
		msg = formatInitial(c)
	case addrscan.ChangeTypeBalance:
		msg = formatBalanceChange(c)
	case addrscan.ChangeTypeTransaction:
		msg = formatTransaction(c)
	default:
		msg = fmt.Sprintf("❓ *Activity detected*\n\nAddress: `%s`", shortAddress(c.Address))
	}

	return Truncate(msg, maxMessageLength)
}

// Truncate shortens a message to fit the transport limit, keeping the
// head where the headline and address live. The cut backs up to a rune
// boundary so an emoji is never split into invalid UTF-8.
func Truncate(msg string, limit int) string {
	if len(msg) <= limit {
		return msg
	}

	const marker = "\n\n... (truncated)"
	cut := limit - len(marker)
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + marker
}
