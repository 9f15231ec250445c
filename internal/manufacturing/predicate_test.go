package manufacturing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		name    string
		field   string
		cond    enums.FilterCondition
		value   string
		numeric bool
		want    bool
	}{
		{"no condition passes", "anything", enums.FilterConditionNone, "x", false, true},
		{"unknown condition passes", "5", enums.FilterCondition("contains"), "9", true, true},
		{"numeric equals", "5.0", enums.FilterConditionEquals, "5", true, true},
		{"numeric equals empty value", "0", enums.FilterConditionEquals, "", true, false},
		{"text equals ignores case", "Tote-A", enums.FilterConditionEquals, "tote-a", false, true},
		{"text equals folds unicode", "STRASSE", enums.FilterConditionEquals, "strasse", false, true},
		{"text not equals", "abc", enums.FilterConditionNotEquals, "ABC", false, false},
		{"numeric not equals on garbage", "abc", enums.FilterConditionNotEquals, "1", true, true},
		{"greater than", "10", enums.FilterConditionGreaterThan, "9", false, true},
		{"greater than non numeric", "abc", enums.FilterConditionGreaterThan, "1", true, false},
		{"less than", "3", enums.FilterConditionLessThan, "3", true, false},
		{"greater or equal", "3", enums.FilterConditionGreaterOrEqual, "3", true, true},
		{"less or equal", "2.5", enums.FilterConditionLessOrEqual, "3", true, true},
		{"less or equal non numeric value", "2", enums.FilterConditionLessOrEqual, "n/a", true, false},
		{"between inside", "5", enums.FilterConditionBetween, "1-10", true, true},
		{"between inclusive bounds", "10", enums.FilterConditionBetween, " 1 - 10 ", true, true},
		{"between outside", "11", enums.FilterConditionBetween, "1-10", true, false},
		{"between missing separator", "5", enums.FilterConditionBetween, "1to10", true, false},
		{"between bad bound", "5", enums.FilterConditionBetween, "1-x", true, false},
		{"between too many parts", "5", enums.FilterConditionBetween, "1-2-3", true, false},
		{"not between inside", "5", enums.FilterConditionNotBetween, "1-10", true, false},
		{"not between outside", "11", enums.FilterConditionNotBetween, "1-10", true, true},
		{"not between missing separator", "5", enums.FilterConditionNotBetween, "1to10", true, true},
		{"not between empty value", "5", enums.FilterConditionNotBetween, "", true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.field, tc.cond, tc.value, tc.numeric))
		})
	}
}
