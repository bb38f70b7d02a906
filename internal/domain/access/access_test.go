package access

import "testing"

func TestPrincipal_OwnerID(t *testing.T) {
	if got := Anonymous().OwnerID(); got != AnonymousOwner {
		t.Errorf("anonymous OwnerID = %q", got)
	}
	if got := (Principal{UserID: "7"}).OwnerID(); got != "7" {
		t.Errorf("user OwnerID = %q", got)
	}
}

func TestPolicy(t *testing.T) {
	owner := Principal{UserID: "1"}
	other := Principal{UserID: "2"}
	staff := Principal{UserID: "99", Staff: true}
	anon := Anonymous()

	tests := []struct {
		name     string
		policy   Policy
		p        Principal
		canRead  bool
		canWrite bool
		canMake  bool
		canAll   bool
	}{
		{"owner", Policy{}, owner, true, true, true, false},
		{"other user", Policy{}, other, false, false, true, false},
		{"staff", Policy{}, staff, true, true, true, true},
		{"anonymous closed", Policy{}, anon, false, false, false, false},
		{"anonymous open", Policy{AnonymousAccess: true}, anon, true, false, true, false},
		{"other user open", Policy{AnonymousAccess: true}, other, true, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.CanRead(tt.p, "1"); got != tt.canRead {
				t.Errorf("CanRead = %v, want %v", got, tt.canRead)
			}
			if got := tt.policy.CanWrite(tt.p, "1"); got != tt.canWrite {
				t.Errorf("CanWrite = %v, want %v", got, tt.canWrite)
			}
			if got := tt.policy.CanCreate(tt.p); got != tt.canMake {
				t.Errorf("CanCreate = %v, want %v", got, tt.canMake)
			}
			if got := tt.policy.CanListAll(tt.p); got != tt.canAll {
				t.Errorf("CanListAll = %v, want %v", got, tt.canAll)
			}
		})
	}
}

func TestPolicy_AnonymousCannotWriteAnonymousRecords(t *testing.T) {
	pol := Policy{AnonymousAccess: true}
	if pol.CanWrite(Anonymous(), AnonymousOwner) {
		t.Error("anonymous caller must not modify anonymous records")
	}
}
