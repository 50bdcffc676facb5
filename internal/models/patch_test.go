package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestPackPatch_Apply(t *testing.T) {
	pack := Pack{
		Name:        "Old",
		Description: "keep",
		IsPublished: true,
		Plans:       []Plan{{Label: "1 Month", DurationDays: 30, PriceCents: 3000}},
	}

	PackPatch{
		Name:        ptr("New"),
		IsPublished: ptr(false),
		Plans:       &[]Plan{},
	}.Apply(&pack)

	assert.Equal(t, "New", pack.Name)
	assert.Equal(t, "keep", pack.Description)
	assert.False(t, pack.IsPublished)
	assert.Empty(t, pack.Plans)
	assert.Nil(t, pack.CourseIDs)
}

func TestCoursePatch_Apply(t *testing.T) {
	course := Course{Title: "Go", CoachName: "Coach"}
	CoursePatch{CoachName: ptr("Rob"), IsPublished: ptr(true)}.Apply(&course)

	assert.Equal(t, "Go", course.Title)
	assert.Equal(t, "Rob", course.CoachName)
	assert.True(t, course.IsPublished)
}

func TestLessonPatch_Apply(t *testing.T) {
	lesson := Lesson{Title: "Intro", Position: 3}
	LessonPatch{Position: ptr(0)}.Apply(&lesson)

	assert.Equal(t, "Intro", lesson.Title)
	assert.Equal(t, 0, lesson.Position)
}

func TestPackFindPlan(t *testing.T) {
	pack := Pack{Plans: []Plan{{Label: "1 Month", DurationDays: 30}, {Label: "3 Months", DurationDays: 90}}}

	plan, ok := pack.FindPlan("3 Months")
	assert.True(t, ok)
	assert.Equal(t, 90, plan.DurationDays)

	_, ok = pack.FindPlan("1 Year")
	assert.False(t, ok)
}
