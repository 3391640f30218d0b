package reminder

import (
	"fmt"

	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/notify"
)

// categoryLabels gives each category a human phrase for notification copy.
// Categories without an entry fall back to their raw name.
var categoryLabels = map[model.Category]string{
	model.CategoryGroceries:     "grocery run",
	model.CategoryDining:        "dining out",
	model.CategoryTransport:     "transport",
	model.CategoryRent:          "rent payment",
	model.CategoryUtilities:     "utility bill",
	model.CategoryHealth:        "health expense",
	model.CategoryInsurance:     "insurance premium",
	model.CategoryEntertainment: "entertainment",
	model.CategoryShopping:      "shopping",
	model.CategoryTravel:        "travel booking",
	model.CategoryEducation:     "education fee",
	model.CategorySubscriptions: "subscription renewal",
	model.CategoryPets:          "pet expense",
	model.CategoryGifts:         "gift",
	model.CategoryTaxes:         "tax payment",
	model.CategoryFees:          "fee",
	model.CategorySalary:        "salary",
	model.CategoryBonus:         "bonus",
	model.CategoryInterest:      "interest payment",
	model.CategoryInvestment:    "investment return",
	model.CategoryRefund:        "refund",
}

func categoryLabel(c model.Category) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

const dateLayout = "Mon, Jan 2"

// reminderNotification builds the due-today notice with its confirm and
// cancel actions.
func reminderNotification(sched *model.ScheduledTransaction) notify.Notification {
	var title, body string
	label := categoryLabel(sched.Category)
	amount := formatAmount(sched.Amount)
	date := sched.TargetDate.Format(dateLayout)

	if sched.Direction == model.DirectionIncome {
		title = "Expected income today"
		body = fmt.Sprintf("Your %s of %s is expected today (%s). Did it arrive?", label, amount, date)
	} else {
		title = "Scheduled payment due today"
		body = fmt.Sprintf("Your %s of %s is due today (%s). Did it happen?", label, amount, date)
	}

	return notify.Notification{
		Title: title,
		Body:  body,
		Actions: []notify.Action{
			{Kind: notify.ActionConfirm, Label: "Confirm", ScheduledID: sched.ID},
			{Kind: notify.ActionCancel, Label: "Cancel", ScheduledID: sched.ID},
		},
	}
}

// expirationNotification builds the not-confirmed notice. It carries no
// actions.
func expirationNotification(sched *model.ScheduledTransaction) notify.Notification {
	label := categoryLabel(sched.Category)
	amount := formatAmount(sched.Amount)
	date := sched.TargetDate.Format(dateLayout)

	return notify.Notification{
		Title: "Scheduled transaction expired",
		Body: fmt.Sprintf("Your %s of %s from %s was never confirmed. It will be removed in 24 hours.",
			label, amount, date),
	}
}
