package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockMailer stands in for the real SMTP sender.
type MockMailer struct {
	WasCalled bool
	LastTo    string
	LastTitle string
}

func (m *MockMailer) SendListingCreatedEmail(toEmail, listingTitle string) error {
	m.WasCalled = true
	m.LastTo = toEmail
	m.LastTitle = listingTitle
	return nil
}

func TestSendListingCreatedEmail_Mock(t *testing.T) {
	mock := &MockMailer{}
	err := mock.SendListingCreatedEmail("seller@example.com", "BMW 320d")

	assert.NoError(t, err)
	assert.True(t, mock.WasCalled)
	assert.Equal(t, "seller@example.com", mock.LastTo)
	assert.Equal(t, "BMW 320d", mock.LastTitle)
}

func TestNewSMTPMailer(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 587, "noreply@example.com", "password")

	assert.Equal(t, "smtp.example.com", m.host)
	assert.Equal(t, 587, m.port)
	assert.Equal(t, "noreply@example.com", m.from)
}
