// Package ofx turns OFX/QFX bank and credit card statements into expense
// transactions ready for anomaly detection.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// transactionNamespace seeds the deterministic IDs of imported transactions,
// so importing the same statement twice yields the same IDs.
var transactionNamespace = uuid.MustParse("5f1b7f8e-2a4c-4d8e-9f2b-3c6a1e0d7b94")

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Categorizer assigns a category to a transaction that has none.
type Categorizer interface {
	Categorize(txn model.Transaction) model.Category
}

// Parser reads OFX/QFX statements for one owner.
type Parser struct {
	categorizer Categorizer
	logger      *slog.Logger
	ownerID     string
}

// NewParser creates a parser that attributes transactions to ownerID.
// A nil categorizer files everything under the catch-all category.
func NewParser(ownerID string, categorizer Categorizer, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{ownerID: ownerID, categorizer: categorizer, logger: logger}
}

// preprocessOFX fixes common formatting issues in OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Severity must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes drop the closing bracket of a bare opening tag.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses a statement and returns its debits as expenses, oldest
// statement first. Credits are skipped.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var (
		transactions       []model.Transaction
		bankStmts, ccStmts int
		skipped            int
	)

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			bankStmts++
			txns, n := p.convertAll(stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID))
			transactions = append(transactions, txns...)
			skipped += n
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			ccStmts++
			txns, n := p.convertAll(stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID))
			transactions = append(transactions, txns...)
			skipped += n
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Info("Parsed OFX file",
		"expenses", len(transactions),
		"skipped_credits", skipped,
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func (p *Parser) convertAll(ofxTxns []ofxgo.Transaction, accountID string) ([]model.Transaction, int) {
	var (
		out     []model.Transaction
		skipped int
	)
	for _, ofxTx := range ofxTxns {
		txn, ok := p.convertTransaction(ofxTx, accountID)
		if !ok {
			skipped++
			continue
		}
		out = append(out, txn)
	}
	return out, skipped
}

// convertTransaction converts an OFX debit to an expense. OFX amounts are
// negative for money leaving the account.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) (model.Transaction, bool) {
	amount := decimal.NewFromBigRat(&ofxTx.TrnAmt.Rat, 2)
	if !amount.IsNegative() {
		return model.Transaction{}, false
	}

	txn := model.Transaction{
		ID:          transactionID(p.ownerID, accountID, string(ofxTx.FiTID)),
		OwnerID:     p.ownerID,
		Date:        ofxTx.DtPosted.Time,
		Title:       extractMerchantName(ofxTx),
		Description: describe(ofxTx),
		Amount:      amount.Neg(),
		Category:    model.CategoryOther,
	}
	if txn.Title == "" {
		txn.Title = strings.TrimSpace(fmt.Sprintf("%v", ofxTx.TrnType))
	}
	if p.categorizer != nil {
		txn.Category = p.categorizer.Categorize(txn)
	}
	return txn, true
}

func transactionID(ownerID, accountID, fitID string) string {
	return uuid.NewSHA1(transactionNamespace, []byte(ownerID+"\x00"+accountID+"\x00"+fitID)).String()
}

func describe(tx ofxgo.Transaction) string {
	parts := []string{fmt.Sprintf("%v", tx.TrnType)}
	if tx.CheckNum != "" {
		parts = append(parts, "check "+string(tx.CheckNum))
	}
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" {
		parts = append(parts, memo)
	}
	return strings.Join(parts, " ")
}

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading "MM/DD " date.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
