package validators

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "11988887777", NormalizePhone("(11) 98888-7777"))
	assert.Equal(t, "+5511988887777", NormalizePhone(" +55 11 98888 7777 "))
	assert.Equal(t, "", NormalizePhone("123"))
	assert.Equal(t, "", NormalizePhone(""))
	assert.Equal(t, "", NormalizePhone("1234567890123456"))
}

type fakeResolver struct {
	mx  map[string]bool
	ips map[string]bool
}

func (f fakeResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	if f.mx[name] {
		return []*net.MX{{Host: "mx." + name}}, nil
	}
	return nil, errors.New("no mx")
}

func (f fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	if f.ips[host] {
		return []net.IPAddr{{IP: net.IPv4(10, 0, 0, 1)}}, nil
	}
	return nil, errors.New("no host")
}

func TestIsEmailDomainValid(t *testing.T) {
	r := fakeResolver{
		mx:  map[string]bool{"mail.com": true},
		ips: map[string]bool{"web.com": true},
	}
	ctx := context.Background()

	assert.True(t, IsEmailDomainValid(ctx, r, "a@mail.com"))
	assert.True(t, IsEmailDomainValid(ctx, r, "a@web.com"))
	assert.False(t, IsEmailDomainValid(ctx, r, "a@nowhere.test"))
	assert.False(t, IsEmailDomainValid(ctx, r, "no-at-sign"))
	assert.False(t, IsEmailDomainValid(ctx, r, "trailing@"))
}
