package core

import (
	"reflect"
	"testing"
)

func TestLoginCodec_EncodeBasicFields(t *testing.T) {
	entry := newFakeEntry("e1")
	entry.title = "Example"
	entry.username = "alice"
	entry.password = "s3cret"
	entry.groupName = "Web"
	entry.expired = true

	login := LoginCodec{}.Encode(entry)
	if login.ID != "e1" || login.Name != "Example" || login.Username != "alice" {
		t.Fatalf("unexpected payload: %+v", login)
	}
	if login.Password != "s3cret" || login.Group != "Web" || !login.Expired {
		t.Fatalf("unexpected payload: %+v", login)
	}
	if login.TOTP != "" || login.SkipAutoSubmit != "" || login.StringFields != nil {
		t.Fatalf("expected optional fields empty: %+v", login)
	}
}

func TestLoginCodec_EncodeOptionalFields(t *testing.T) {
	entry := newFakeEntry("e1")
	entry.totp = "123456"
	entry.customData[DataKeySkipAutoSubmit] = TrueValue

	login := LoginCodec{}.Encode(entry)
	if login.TOTP != "123456" {
		t.Fatalf("totp = %q", login.TOTP)
	}
	if login.SkipAutoSubmit != TrueValue {
		t.Fatalf("skipAutoSubmit = %q", login.SkipAutoSubmit)
	}
}

func TestLoginCodec_StringFieldsRequireOptIn(t *testing.T) {
	entry := newFakeEntry("e1")
	entry.attributes[StringFieldPrefix+"otp_seed"] = "seed"
	entry.attributes[StringFieldPrefix+"account"] = "primary"
	entry.attributes["plain"] = "invisible"

	if login := (LoginCodec{}).Encode(entry); login.StringFields != nil {
		t.Fatalf("string fields must stay hidden without opt-in: %+v", login.StringFields)
	}

	login := LoginCodec{SupportKPHFields: true}.Encode(entry)
	want := []map[string]string{
		{StringFieldPrefix + "account": "primary"},
		{StringFieldPrefix + "otp_seed": "seed"},
	}
	if !reflect.DeepEqual(login.StringFields, want) {
		t.Fatalf("string fields = %v, want %v", login.StringFields, want)
	}
}

func TestLoginCodec_EncodeAllKeepsOrder(t *testing.T) {
	first := newFakeEntry("a")
	second := newFakeEntry("b")

	logins := LoginCodec{}.EncodeAll([]Entry{first, second})
	if len(logins) != 2 || logins[0].ID != "a" || logins[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", logins)
	}
}
