// Package stories declares the story spoiler lifecycle suite.
package stories

import (
	"github.com/abdul-hamid-achik/storyspec/packages/assertions"
	"github.com/abdul-hamid-achik/storyspec/packages/capture"
	"github.com/abdul-hamid-achik/storyspec/packages/core/runner"
	"github.com/abdul-hamid-achik/storyspec/packages/fixture"
)

// Fabricated ids that no server ever issues.
const (
	MissingEditID   = "123"
	MissingDeleteID = "this-id-does-not-exist"
)

// Literal server messages.
const (
	MsgCreated        = "Successfully created!"
	MsgEdited         = "Successfully edited"
	MsgDeleted        = "Deleted successfully!"
	MsgNoSpoilers     = "No spoilers..."
	MsgUnableToDelete = "Unable to delete this story spoiler!"
)

// Draft is the payload of create and edit calls.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// listSchema describes the payload of GET /api/Story/All.
const listSchema = `{
	"type": "array",
	"items": {"type": "object"}
}`

// Scenarios returns the suite in execution order.
func Scenarios() []runner.Scenario {
	return []runner.Scenario{
		{
			Name:   "CreateStory_ShouldReturnCreated",
			Method: "POST",
			Path:   "/api/Story/Create",
			Body: Draft{
				Title:       "New Story",
				Description: "This is a new story spoiler description",
				URL:         "",
			},
			Captures: []capture.Capture{
				capture.Body(fixture.KeyStoryID, "storyId"),
			},
			Checks: []assertions.Check{
				assertions.Status(201),
				assertions.FieldNotEmpty("storyId"),
				assertions.Field("msg", MsgCreated),
			},
		},
		{
			Name:   "EditStory_ShouldReturnOk",
			Method: "PUT",
			Path:   "/api/Story/Edit/{{" + fixture.KeyStoryID + "}}",
			Body: Draft{
				Title:       "Updated Story Title",
				Description: "Updated story    spoiler description",
				URL:         "",
			},
			Checks: []assertions.Check{
				assertions.Status(200),
				assertions.Field("msg", MsgEdited),
			},
		},
		{
			Name:   "GetAllStory_ShouldReturnOk",
			Method: "GET",
			Path:   "/api/Story/All",
			Checks: []assertions.Check{
				assertions.Status(200),
				assertions.Sequence(""),
				assertions.Schema(listSchema),
			},
		},
		{
			Name:   "DeleteStory_ShouldReturnOk",
			Method: "DELETE",
			Path:   "/api/Story/Delete/{{" + fixture.KeyStoryID + "}}",
			Checks: []assertions.Check{
				assertions.Status(200),
				assertions.Field("msg", MsgDeleted),
			},
			Invalidates: []string{fixture.KeyStoryID},
		},
		{
			Name:   "CreateStory_MissingRequiredFields_ShouldReturnBadRequest",
			Method: "POST",
			Path:   "/api/Story/Create",
			Body: map[string]string{
				"name":        "",
				"description": "",
			},
			Checks: []assertions.Check{
				assertions.Status(400),
			},
		},
		{
			Name:   "EditNonExistingStory_ShouldReturnNotFound",
			Method: "PUT",
			Path:   "/api/Story/Edit/" + MissingEditID,
			Body: Draft{
				Title:       "Does not matter",
				Description: "Does not matter",
				URL:         "",
			},
			Checks: []assertions.Check{
				assertions.Status(404),
				assertions.Field("msg", MsgNoSpoilers),
			},
		},
		{
			Name:   "DeleteNonExistingStory_ShouldReturnBadRequest",
			Method: "DELETE",
			Path:   "/api/Story/Delete/" + MissingDeleteID,
			Checks: []assertions.Check{
				assertions.Status(400),
				assertions.Field("msg", MsgUnableToDelete),
			},
		},
	}
}

// Names returns the scenario names in execution order.
func Names() []string {
	scenarios := Scenarios()
	names := make([]string, len(scenarios))
	for i, sc := range scenarios {
		names[i] = sc.Name
	}
	return names
}
