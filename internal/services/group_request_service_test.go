package services

import (
	"testing"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

func TestGroupRequestAmountFlatPrice(t *testing.T) {
	session := &models.GroupSession{Price: 1500}
	req := &models.GroupSessionRequest{}

	if amount := GroupRequestAmount(session, req); amount != 1500 {
		t.Errorf("Expected flat price 1500, got %d", amount)
	}
}

func TestGroupRequestAmountGrantedConcession(t *testing.T) {
	session := &models.GroupSession{
		Price:              1500,
		ConcessionaryPrice: int64Ptr(500),
	}
	req := &models.GroupSessionRequest{
		PayConcessionaryPrice: true,
		ConcessionaryStatus:   models.SubStatusApproved,
	}

	if amount := GroupRequestAmount(session, req); amount != 500 {
		t.Errorf("Expected concessionary price 500, got %d", amount)
	}
}

func TestGroupRequestAmountGrantedConcessionWithoutRateIsFree(t *testing.T) {
	session := &models.GroupSession{Price: 1500}
	req := &models.GroupSessionRequest{
		PayConcessionaryPrice: true,
		ConcessionaryStatus:   models.SubStatusApproved,
	}

	if amount := GroupRequestAmount(session, req); amount != 0 {
		t.Errorf("Expected 0 for granted concession with no concessionary rate, got %d", amount)
	}
}

func TestGroupRequestAmountPendingConcessionChargesFullRate(t *testing.T) {
	session := &models.GroupSession{
		Price:              1500,
		ConcessionaryPrice: int64Ptr(500),
	}
	req := &models.GroupSessionRequest{
		PayConcessionaryPrice: true,
		ConcessionaryStatus:   models.SubStatusPending,
	}

	if amount := GroupRequestAmount(session, req); amount != 1500 {
		t.Errorf("Expected full price 1500 while the concession is pending, got %d", amount)
	}
}
