package core

import (
	"sort"
	"strings"
)

// LoginCodec projects vault entries into the payload shape disclosed to
// clients. Secrets never leave this projection in any other form.
type LoginCodec struct {
	// SupportKPHFields exposes "KPH: "-prefixed attributes as extra string
	// fields on the payload.
	SupportKPHFields bool
}

func (c LoginCodec) Encode(entry Entry) Login {
	login := Login{
		ID:       entry.ID(),
		Name:     entry.Title(),
		Username: entry.Username(),
		Password: entry.Password(),
		Group:    entry.GroupName(),
		Expired:  entry.Expired(),
	}
	if totp, ok := entry.TOTP(); ok {
		login.TOTP = totp
	}
	if value, ok := entry.CustomDataValue(DataKeySkipAutoSubmit); ok {
		login.SkipAutoSubmit = value
	}
	if c.SupportKPHFields {
		login.StringFields = collectStringFields(entry)
	}
	return login
}

func (c LoginCodec) EncodeAll(entries []Entry) []Login {
	logins := make([]Login, 0, len(entries))
	for _, entry := range entries {
		logins = append(logins, c.Encode(entry))
	}
	return logins
}

func collectStringFields(entry Entry) []map[string]string {
	var keys []string
	for _, key := range entry.AttributeKeys() {
		if strings.HasPrefix(key, StringFieldPrefix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	fields := make([]map[string]string, 0, len(keys))
	for _, key := range keys {
		value, ok := entry.AttributeValue(key)
		if !ok {
			continue
		}
		fields = append(fields, map[string]string{key: value})
	}
	return fields
}
