package usecase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
)

// PaymentRecorder books the money movements around revenue: charges and their
// fees, payouts to the bank, balance contributions and transfers to connected
// accounts.
type PaymentRecorder struct {
	accounts   domain.ChartOfAccounts
	classifier *TaxClassifier
	customers  CustomerLookup
	memo       *LookupMemo
	loc        *time.Location
}

// NewPaymentRecorder creates a new PaymentRecorder.
func NewPaymentRecorder(
	accounts domain.ChartOfAccounts,
	classifier *TaxClassifier,
	customers CustomerLookup,
	memo *LookupMemo,
	loc *time.Location,
) *PaymentRecorder {
	if memo == nil {
		memo = NewLookupMemo()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PaymentRecorder{
		accounts:   accounts,
		classifier: classifier,
		customers:  customers,
		memo:       memo,
		loc:        loc,
	}
}

func (p *PaymentRecorder) record(date time.Time, amount decimal.Decimal, side domain.Side, account, counter, text, ref string) domain.Record {
	return domain.Record{
		Date:           date.In(p.loc),
		Amount:         amount,
		Side:           side,
		Currency:       domain.SettlementCurrency,
		Account:        account,
		CounterAccount: counter,
		Text:           domain.TruncateText(text, domain.MaxRecordText),
		DocumentRef:    ref,
	}
}

// ChargeRecords books the payment, fees and refund of every paid charge.
func (p *PaymentRecorder) ChargeRecords(charges []domain.Charge) ([]domain.Record, error) {
	const op = "charge records"

	var records []domain.Record
	for i := range charges {
		ch := &charges[i]
		if !ch.Paid || !ch.Captured {
			continue
		}
		if !domain.IsSettlementCurrency(ch.Currency) {
			return nil, domain.NewProcessingError(op, ch.ID,
				fmt.Errorf("%w: %s", domain.ErrUnexpectedCurrency, ch.Currency))
		}

		customerAccount := p.accounts.CollectiveDebtor
		if ch.Customer != nil || ch.CustomerID != "" {
			cus, err := p.customer(ch)
			if err != nil {
				return nil, domain.NewProcessingError(op, ch.ID, err)
			}
			profile, _ := p.classifier.ClassifyCustomer(cus)
			customerAccount = profile.CustomerAccount
		}

		ref := ch.ReceiptNumber
		if !ch.Direct() {
			ref = ch.InvoiceNumber
		}

		records = append(records, p.record(ch.Created, domain.RoundMoney(ch.Amount), domain.SideDebit,
			p.accounts.Bank, customerAccount, fmt.Sprintf("Stripe Payment (%s)", ch.ID), ref))

		if ch.BalanceTransaction != nil {
			for _, fee := range ch.BalanceTransaction.FeeDetails {
				if !domain.IsSettlementCurrency(fee.Currency) {
					return nil, domain.NewProcessingError(op, ch.ID,
						fmt.Errorf("%w: fee in %s", domain.ErrUnexpectedCurrency, fee.Currency))
				}
				desc := fee.Description
				if desc == "" {
					desc = "Stripe Fee"
				}
				records = append(records, p.record(ch.Created, domain.RoundMoney(fee.Amount), domain.SideDebit,
					p.accounts.Fees, p.accounts.Bank, fmt.Sprintf("%s (%s)", desc, ch.ID), ""))
			}
		}

		if ch.Refunded || len(ch.Refunds) > 0 {
			if len(ch.Refunds) != 1 {
				return nil, domain.NewProcessingError(op, ch.ID,
					fmt.Errorf("%w: %d refunds", domain.ErrUnsupportedRefundPattern, len(ch.Refunds)))
			}
			refund := ch.Refunds[0]
			records = append(records, p.record(refund.Created, domain.RoundMoney(refund.Amount), domain.SideCredit,
				p.accounts.Bank, customerAccount, fmt.Sprintf("Stripe Payment Refund (%s)", ch.ID), ref))
		}
	}
	return records, nil
}

func (p *PaymentRecorder) customer(ch *domain.Charge) (*domain.Customer, error) {
	if ch.Customer != nil {
		return p.memo.RememberCustomer(ch.Customer), nil
	}
	cus, err := p.memo.Customer(p.customers, ch.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", ch.CustomerID, err)
	}
	if cus == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingCustomer, ch.CustomerID)
	}
	return cus, nil
}

// PayoutRecords books paid payouts from the bank account into transit.
func (p *PaymentRecorder) PayoutRecords(payouts []domain.Payout) ([]domain.Record, error) {
	const op = "payout records"

	var records []domain.Record
	for _, po := range payouts {
		if po.Status != "paid" {
			continue
		}
		if !domain.IsSettlementCurrency(po.Currency) {
			return nil, domain.NewProcessingError(op, po.ID,
				fmt.Errorf("%w: %s", domain.ErrUnexpectedCurrency, po.Currency))
		}
		if len(po.FeeDetails) != 0 {
			return nil, domain.NewProcessingError(op, po.ID,
				fmt.Errorf("%w: %d fee details on payout", domain.ErrUnexpectedFeeShape, len(po.FeeDetails)))
		}

		records = append(records, p.record(po.Created, domain.RoundMoney(po.Amount), domain.SideDebit,
			p.accounts.Transit, p.accounts.Bank, fmt.Sprintf("Stripe Payout %s / %s", po.ID, po.Description), ""))
	}
	return records, nil
}

// ContributionRecords books balance contributions. Contributions are negative
// balance movements, so the booked amount is the negated transaction amount.
func (p *PaymentRecorder) ContributionRecords(txs []domain.BalanceTransaction) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(txs))
	for _, bt := range txs {
		if !domain.IsSettlementCurrency(bt.Currency) {
			return nil, domain.NewProcessingError("contribution records", bt.ID,
				fmt.Errorf("%w: %s", domain.ErrUnexpectedCurrency, bt.Currency))
		}
		desc := bt.Description
		if desc == "" {
			desc = "Contribution"
		}
		records = append(records, p.record(bt.Created, domain.RoundMoney(bt.Amount.Neg()), domain.SideDebit,
			p.accounts.Contributions, p.accounts.Bank, fmt.Sprintf("Stripe %s %s", desc, bt.ID), ""))
	}
	return records, nil
}

// TransferRecords books the share of a charge passed on to a connected account
// as an external service, settled from the bank account.
func (p *PaymentRecorder) TransferRecords(transfers []domain.Transfer) ([]domain.Record, error) {
	const op = "transfer records"

	var records []domain.Record
	for _, tr := range transfers {
		if tr.Reversed {
			continue
		}
		if !domain.IsSettlementCurrency(tr.Currency) {
			return nil, domain.NewProcessingError(op, tr.ID,
				fmt.Errorf("%w: %s", domain.ErrUnexpectedCurrency, tr.Currency))
		}
		if tr.Destination == nil || tr.Destination.Metadata[domain.MetadataAccountNumber] == "" {
			return nil, domain.NewProcessingError(op, tr.ID, domain.ErrMissingAccountNumber)
		}
		destination := tr.Destination.Metadata[domain.MetadataAccountNumber]

		net := domain.RoundMoney(tr.Amount)
		reference := tr.ID
		if tr.Source != nil {
			net = net.Sub(domain.RoundMoney(tr.Source.ApplicationFeeAmount))
			if tr.Source.InvoiceNumber != "" {
				reference = tr.Source.InvoiceNumber
			}
		}

		text := fmt.Sprintf("Fremdleistung %s anteilig", reference)
		records = append(records,
			p.record(tr.Created, net, domain.SideDebit, p.accounts.ExternalServices, destination, text, tr.ID),
			p.record(tr.Created, net, domain.SideDebit, destination, p.accounts.Bank, text, tr.ID),
		)
	}
	return records, nil
}
