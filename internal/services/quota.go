package services

import (
	"strconv"
	"strings"

	"github.com/Yokesh17/Project--Management/pkg/response"
)

const (
	PlanFree = "free"
	PlanPaid = "paid"

	planCustomPrefix = "custom_"
)

const (
	freeProjectLimit = 1
	paidProjectLimit = 10
	freeStageLimit   = 10
	freeTaskLimit    = 500
)

// QuotaDecision is the outcome of a plan check. Limit is meaningless when
// Unlimited is set.
type QuotaDecision struct {
	Allowed   bool
	Limit     int
	Unlimited bool
}

// Err returns the QuotaExceeded error for a denied decision, nil otherwise.
// what names the resource in the message ("projects").
func (d QuotaDecision) Err(what string) error {
	if d.Allowed {
		return nil
	}
	return response.NewQuotaExceeded(what, d.Limit)
}

// ProjectLimit is the number of projects an owner on plan may own.
// "custom_<N>" grants N; a suffix that does not parse falls back to 1.
func ProjectLimit(plan string) int {
	switch {
	case plan == PlanPaid:
		return paidProjectLimit
	case strings.HasPrefix(plan, planCustomPrefix):
		n, err := strconv.Atoi(plan[strings.LastIndex(plan, "_")+1:])
		if err != nil {
			return freeProjectLimit
		}
		return n
	default:
		return freeProjectLimit
	}
}

// isFreePlan treats an unset plan as free. Stage and task caps only apply here.
func isFreePlan(plan string) bool {
	return plan == "" || plan == PlanFree
}

func CheckProjectQuota(plan string, owned int64) QuotaDecision {
	limit := ProjectLimit(plan)
	return QuotaDecision{Allowed: owned < int64(limit), Limit: limit}
}

func CheckStageQuota(plan string, stages int64) QuotaDecision {
	return boundedQuota(plan, stages, freeStageLimit)
}

func CheckTaskQuota(plan string, tasks int64) QuotaDecision {
	return boundedQuota(plan, tasks, freeTaskLimit)
}

func boundedQuota(plan string, count int64, freeLimit int) QuotaDecision {
	if !isFreePlan(plan) {
		return QuotaDecision{Allowed: true, Unlimited: true}
	}
	return QuotaDecision{Allowed: count < int64(freeLimit), Limit: freeLimit}
}
