package users

// MergeCampaigns folds incoming campaign updates into the stored entries.
// Entries match by ID; matched entries are updated field-by-field so that
// fields absent from the update are never lost, and unmatched entries are
// appended. The result never holds two entries with the same ID.
func MergeCampaigns(existing []Campaign, incoming []CampaignPatch) []Campaign {
	merged := make([]Campaign, len(existing))
	copy(merged, existing)

	for _, patch := range incoming {
		matched := false
		for i := range merged {
			if merged[i].ID != patch.ID {
				continue
			}
			if patch.Language != nil {
				merged[i].Language = *patch.Language
			}
			if patch.SignupDate != nil {
				merged[i].SignupDate = patch.SignupDate
			}
			if patch.ReportbackDate != nil {
				merged[i].ReportbackDate = patch.ReportbackDate
			}
			matched = true
			break
		}
		if !matched {
			merged = append(merged, newCampaign(patch))
		}
	}
	return merged
}

func newCampaign(patch CampaignPatch) Campaign {
	c := Campaign{ID: patch.ID}
	if patch.Language != nil {
		c.Language = *patch.Language
	}
	c.SignupDate = patch.SignupDate
	c.ReportbackDate = patch.ReportbackDate
	return c
}

// MergeSubscriptions folds incoming flag updates into the stored
// subscriptions. Only flags present in the update overwrite; the banned
// sub-record is never touched here (it has its own write path).
func MergeSubscriptions(existing *Subscriptions, patch *SubscriptionsPatch) *Subscriptions {
	if patch == nil {
		return existing
	}
	merged := &Subscriptions{}
	if existing != nil {
		*merged = *existing
	}
	if patch.Mailchimp != nil {
		merged.Mailchimp = patch.Mailchimp
	}
	if patch.Digest != nil {
		merged.Digest = patch.Digest
	}
	if patch.UserEvents != nil {
		merged.UserEvents = patch.UserEvents
	}
	return merged
}
