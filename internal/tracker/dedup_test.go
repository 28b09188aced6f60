package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func app(company, role string, status Status, link string) Application {
	return Application{
		Company:       company,
		Role:          role,
		Status:        status,
		DateSubmitted: "2026-01-10",
		EmailLink:     link,
	}
}

func TestReconcileAllNew(t *testing.T) {
	existing := map[Key]RowRef{}
	plan := Reconcile(existing, []Application{
		app("Acme", "Software Engineer", StatusSubmitted, "link1"),
		app("Globex", "Data Scientist", StatusInterview, "link2"),
	})

	assert.Len(t, plan.Appends, 2)
	assert.Empty(t, plan.Updates)
	assert.Zero(t, plan.Skipped)
}

func TestReconcileUpdatesExistingRowOnProgress(t *testing.T) {
	existing := map[Key]RowRef{
		{Company: "acme", Role: "software engineer"}: {Row: 5, Status: StatusSubmitted, EmailLink: "old"},
	}

	plan := Reconcile(existing, []Application{
		app("Acme, Inc.", "SWE", StatusInterview, "new"),
	})

	assert.Empty(t, plan.Appends)
	require.Len(t, plan.Updates, 1)
	assert.Equal(t, 5, plan.Updates[0].Row)
	assert.Equal(t, StatusSubmitted, plan.Updates[0].PrevStatus)
	assert.Equal(t, StatusInterview, plan.Updates[0].App.Status)
	assert.Equal(t, "new", plan.Updates[0].App.EmailLink)
}

func TestReconcileSkipsWithoutProgress(t *testing.T) {
	existing := map[Key]RowRef{
		{Company: "acme", Role: "software engineer"}: {Row: 5, Status: StatusInterview, EmailLink: "old"},
	}

	plan := Reconcile(existing, []Application{
		app("Acme", "Software Engineer", StatusSubmitted, "new"),
	})

	assert.Empty(t, plan.Appends)
	assert.Empty(t, plan.Updates)
	assert.Equal(t, 1, plan.Skipped)
}

func TestReconcileInBatchDuplicateKeepsOneRow(t *testing.T) {
	plan := Reconcile(nil, []Application{
		app("Acme", "SWE", StatusSubmitted, "first"),
		app("Acme Inc", "Software Engineer", StatusSubmitted, "second"),
	})

	require.Len(t, plan.Appends, 1)
	assert.Equal(t, "first", plan.Appends[0].EmailLink)
	assert.Equal(t, 1, plan.Skipped)
}

func TestReconcileInBatchDuplicateUpgradesStatus(t *testing.T) {
	plan := Reconcile(nil, []Application{
		app("Acme", "SWE", StatusSubmitted, "first"),
		app("Acme", "Software Engineer", StatusOAInvite, "second"),
	})

	require.Len(t, plan.Appends, 1)
	assert.Equal(t, StatusOAInvite, plan.Appends[0].Status)
	assert.Equal(t, "second", plan.Appends[0].EmailLink)
	assert.Zero(t, plan.Skipped)
}

func TestReconcileSequentialProgressWithinBatch(t *testing.T) {
	// Submitted then OA then Interview for the same key: one append
	// carrying the most advanced status.
	plan := Reconcile(nil, []Application{
		app("Acme", "SWE", StatusSubmitted, "l1"),
		app("Acme", "SWE", StatusOAInvite, "l2"),
		app("Acme", "SWE", StatusInterview, "l3"),
	})

	require.Len(t, plan.Appends, 1)
	assert.Equal(t, StatusInterview, plan.Appends[0].Status)
	assert.Equal(t, "l3", plan.Appends[0].EmailLink)
}

func TestReconcileMixedBatch(t *testing.T) {
	existing := map[Key]RowRef{
		{Company: "globex", Role: "data scientist"}: {Row: 2, Status: StatusSubmitted, EmailLink: "g"},
		{Company: "initech", Role: "analyst"}:       {Row: 3, Status: StatusRejected, EmailLink: "i"},
	}

	plan := Reconcile(existing, []Application{
		app("Acme", "SWE", StatusSubmitted, "a"),          // new
		app("Globex", "Data Scientist", StatusRejected, "g2"), // update
		app("Initech", "Analyst", StatusInterview, "i2"),  // skipped, rejected is terminal
	})

	assert.Len(t, plan.Appends, 1)
	assert.Len(t, plan.Updates, 1)
	assert.Equal(t, 1, plan.Skipped)
}
