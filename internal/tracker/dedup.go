package tracker

// RowRef points at an existing spreadsheet row for a dedup key.
// Row is the 1-based row number in the sheet.
type RowRef struct {
	Row       int
	Status    Status
	EmailLink string
}

// Update describes an in-place change to an existing sheet row.
type Update struct {
	Row        int
	PrevStatus Status
	App        Application
}

// Plan is the result of reconciling a batch of extracted applications
// against the rows already present in the sheet.
type Plan struct {
	Appends []Application
	Updates []Update
	Skipped int
}

// Reconcile folds a batch of applications into the existing sheet
// index, producing the append/update plan. The invariant is at most
// one row per key: applications matching an existing row either update
// it (when the status outranks the stored one) or are skipped, and
// duplicates within the batch collapse into a single pending append.
//
// The existing map is mutated: pending appends are recorded with
// Row == 0 so later batch entries find them.
func Reconcile(existing map[Key]RowRef, apps []Application) Plan {
	if existing == nil {
		existing = make(map[Key]RowRef)
	}

	var plan Plan
	pending := make(map[Key]int) // key -> index into plan.Appends

	for _, app := range apps {
		key := KeyFor(app)

		ref, seen := existing[key]
		if !seen {
			existing[key] = RowRef{Row: 0, Status: app.Status, EmailLink: app.EmailLink}
			pending[key] = len(plan.Appends)
			plan.Appends = append(plan.Appends, app)
			continue
		}

		if ref.Row == 0 {
			// Duplicate within this batch. Keep one pending append but
			// let a later email upgrade its status and link.
			idx := pending[key]
			if ShouldUpdateStatus(plan.Appends[idx].Status, app.Status) {
				plan.Appends[idx].Status = app.Status
				plan.Appends[idx].EmailLink = app.EmailLink
				existing[key] = RowRef{Row: 0, Status: app.Status, EmailLink: app.EmailLink}
			} else {
				plan.Skipped++
			}
			continue
		}

		if ShouldUpdateStatus(ref.Status, app.Status) {
			plan.Updates = append(plan.Updates, Update{
				Row:        ref.Row,
				PrevStatus: ref.Status,
				App:        app,
			})
			existing[key] = RowRef{Row: ref.Row, Status: app.Status, EmailLink: app.EmailLink}
		} else {
			plan.Skipped++
		}
	}

	return plan
}
