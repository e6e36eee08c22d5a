package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// Attribute is a single entry of the DICOM JSON model (PS3.18 F.2):
// a value representation plus the list of values for one tag.
type Attribute struct {
	VR    string        `json:"vr,omitempty"`
	Value []interface{} `json:"Value,omitempty"`
}

// Dataset is one DICOM JSON record as returned by QIDO-RS, keyed by the
// 8-digit uppercase hex form of the tag (e.g. "0020000D").
type Dataset map[string]Attribute

// TagKeyword resolves a hex tag key to its DICOM keyword. Unknown or
// private tags keep their hex form.
func TagKeyword(hexTag string) string {
	t, err := parseHexTag(hexTag)
	if err != nil {
		return hexTag
	}
	info, err := tag.Find(t)
	if err != nil || info.Name == "" {
		return hexTag
	}
	return info.Name
}

// KeywordTag resolves a DICOM keyword to its hex tag key.
func KeywordTag(keyword string) (string, bool) {
	info, err := tag.FindByName(keyword)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%04X%04X", info.Tag.Group, info.Tag.Element), true
}

func parseHexTag(hexTag string) (tag.Tag, error) {
	cleaned := strings.ToUpper(strings.NewReplacer("(", "", ")", "", ",", "", " ", "").Replace(hexTag))
	if len(cleaned) != 8 {
		return tag.Tag{}, fmt.Errorf("bad tag %q", hexTag)
	}
	group, err := strconv.ParseUint(cleaned[:4], 16, 16)
	if err != nil {
		return tag.Tag{}, err
	}
	element, err := strconv.ParseUint(cleaned[4:], 16, 16)
	if err != nil {
		return tag.Tag{}, err
	}
	return tag.Tag{Group: uint16(group), Element: uint16(element)}, nil
}

// First returns the first value stored under the given keyword, or nil.
func (ds Dataset) First(keyword string) interface{} {
	hexTag, found := KeywordTag(keyword)
	if !found {
		hexTag = keyword
	}
	attr, found := ds[hexTag]
	if !found || len(attr.Value) == 0 {
		return nil
	}
	return flattenValue(attr.Value[0])
}

// FirstString returns the first value under the keyword rendered as a
// string. QIDO-RS serializes IS/US values as JSON numbers, so numbers are
// formatted without a decimal point ("1", not "1.000000").
func (ds Dataset) FirstString(keyword string) string {
	return stringify(ds.First(keyword))
}

// Strings returns every value under the keyword rendered as strings.
func (ds Dataset) Strings(keyword string) []string {
	hexTag, found := KeywordTag(keyword)
	if !found {
		hexTag = keyword
	}
	attr, found := ds[hexTag]
	if !found {
		return nil
	}
	ret := make([]string, 0, len(attr.Value))
	for _, v := range attr.Value {
		ret = append(ret, stringify(flattenValue(v)))
	}
	return ret
}

// Keywords reshapes the dataset into a keyword-to-first-value mapping.
// Tags without a dictionary entry keep their hex form as the key.
func (ds Dataset) Keywords() map[string]interface{} {
	ret := make(map[string]interface{}, len(ds))
	for hexTag, attr := range ds {
		var value interface{}
		if len(attr.Value) == 1 {
			value = flattenValue(attr.Value[0])
		} else if len(attr.Value) > 1 {
			values := make([]interface{}, 0, len(attr.Value))
			for _, v := range attr.Value {
				values = append(values, flattenValue(v))
			}
			value = values
		}
		ret[TagKeyword(hexTag)] = value
	}
	return ret
}

// flattenValue unwraps the PN object form {"Alphabetic": "DOE^JOHN"} into
// the plain name string. Other values pass through unchanged.
func flattenValue(value interface{}) interface{} {
	if m, ok := value.(map[string]interface{}); ok {
		if alphabetic, found := m["Alphabetic"]; found {
			return alphabetic
		}
	}
	return value
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
