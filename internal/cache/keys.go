package cache

import "github.com/google/uuid"

func latestAnalysisKey(customerID uuid.UUID) string {
	return "pulse:analysis:latest:" + customerID.String()
}
