package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/extrata/extrata-cli/internal/api"
	"github.com/extrata/extrata-cli/internal/validation"
)

const (
	timeLayout      = "2006-01-02 15:04:05"
	timeLayoutShort = "2006-01-02 15:04"
)

func formatTimestamp(t time.Time) string {
	return t.Format(timeLayout)
}

func formatTimestampShort(t time.Time) string {
	return t.Format(timeLayoutShort)
}

// printPayerDetails outputs payer details in text format.
func printPayerDetails(out io.Writer, payer *api.Payer) error {
	_, _ = fmt.Fprintf(out, "Payer %s\n", validation.FormatTaxID(payer.TaxID))
	_, _ = fmt.Fprintf(out, "  Name:  %s\n", payer.Name)
	if email := strings.TrimSpace(payer.Email); email != "" {
		_, _ = fmt.Fprintf(out, "  Email: %s\n", email)
	}
	if phone := strings.TrimSpace(payer.Phone); phone != "" {
		_, _ = fmt.Fprintf(out, "  Phone: %s\n", phone)
	}
	if addr := formatAddress(payer.Address); addr != "" {
		_, _ = fmt.Fprintf(out, "  Address: %s\n", addr)
	}
	if !payer.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(out, "  Created: %s\n", formatTimestamp(payer.CreatedAt))
	}
	return nil
}

// formatAddress renders an address on one line, skipping empty parts.
func formatAddress(addr *api.Address) string {
	if addr == nil {
		return ""
	}
	var parts []string
	street := strings.TrimSpace(addr.Street)
	if street != "" && addr.Number != "" {
		street += ", " + addr.Number
	}
	if street != "" {
		parts = append(parts, street)
	}
	if addr.District != "" {
		parts = append(parts, addr.District)
	}
	cityState := strings.TrimSpace(addr.City)
	if addr.State != "" {
		if cityState != "" {
			cityState += "/" + addr.State
		} else {
			cityState = addr.State
		}
	}
	if cityState != "" {
		parts = append(parts, cityState)
	}
	if addr.PostalCode != "" {
		parts = append(parts, addr.PostalCode)
	}
	return strings.Join(parts, " - ")
}

// printAccountDetails outputs bank account details in text format.
func printAccountDetails(out io.Writer, account *api.Account) error {
	_, _ = fmt.Fprintf(out, "Account %s\n", account.Hash)
	_, _ = fmt.Fprintf(out, "  Bank:   %s\n", account.BankCode)
	_, _ = fmt.Fprintf(out, "  Branch: %s\n", account.Branch)
	_, _ = fmt.Fprintf(out, "  Number: %s\n", account.Number)
	_, _ = fmt.Fprintf(out, "  Kind:   %s\n", account.Kind)
	if !account.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(out, "  Created: %s\n", formatTimestamp(account.CreatedAt))
	}
	return nil
}

// printParseJobDetails outputs a statement parse job in text format.
func printParseJobDetails(out io.Writer, job *api.StatementParseJob) error {
	_, _ = fmt.Fprintf(out, "Parse job %s\n", job.ID)
	_, _ = fmt.Fprintf(out, "  Status: %s\n", job.Status)
	if job.AccountHash != "" {
		_, _ = fmt.Fprintf(out, "  Account: %s\n", job.AccountHash)
	}
	if job.FileName != "" {
		_, _ = fmt.Fprintf(out, "  File:   %s\n", job.FileName)
	}
	if job.TransactionCount > 0 {
		_, _ = fmt.Fprintf(out, "  Transactions: %d\n", job.TransactionCount)
	}
	if job.Error != "" {
		_, _ = fmt.Fprintf(out, "  Error:  %s\n", job.Error)
	}
	return nil
}
