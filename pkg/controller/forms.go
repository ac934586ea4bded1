package controller

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/project-board/pkg/board"
	"github.com/matt-steen/project-board/pkg/db"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	nameMax        = 50
	descriptionMax = 500
	valueMax       = 12
	noClient       = "(none)"
	newClient      = "(new client)"
)

var errInvalidValue = errors.New("value must be a number")

// switchToProjectForm opens the project form, filled from project when editing one.
func (c *Controller) switchToProjectForm(project *db.Project) {
	c.editingProject = project
	c.updateClientOptions()

	title := "New Project"
	if project != nil {
		title = "Edit Project"
	}

	c.setFormTitle(pageProjectForm, title)
	c.fillProjectForm(project)

	c.projectForm.SetFocus(0)
	c.pages.SwitchToPage(pageProjectForm)
	c.app.SetInputCapture(c.handleFormKeys)
}

func (c *Controller) switchToClientForm() {
	c.updateClientFormOptions()

	c.clientForm.SetFocus(0)
	c.pages.SwitchToPage(pageClientForm)
	c.app.SetInputCapture(c.handleFormKeys)
}

func (c *Controller) getProjectFormGrid() *tview.Grid {
	grid := tview.NewGrid().SetRows(2, 0).SetBorders(true)

	c.initFormHeader(pageProjectForm, "New Project")
	c.initProjectForm()

	grid.AddItem(c.formHeaders[pageProjectForm], 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.projectForm, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) getClientFormGrid() *tview.Grid {
	grid := tview.NewGrid().SetRows(2, 0).SetBorders(true)

	c.initFormHeader(pageClientForm, "Clients")
	c.initClientForm()

	grid.AddItem(c.formHeaders[pageClientForm], 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.clientForm, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) setFormTitle(name, title string) {
	c.formHeaders[name].SetCell(0, 0, tview.NewTableCell(fmt.Sprintf("[yellow]%s", title)))
}

func (c *Controller) initFormHeader(name, title string) {
	c.formHeaders[name] = tview.NewTable().SetBorders(false).SetSelectable(false, false)
	c.setFormTitle(name, title)

	row := 1

	for key, event := range c.formEvents {
		text := fmt.Sprintf("[orange]<%s>[white] %s", tcell.KeyNames[key], event.Description)
		c.formHeaders[name].SetCell(row, 0, tview.NewTableCell(text))
		row++
	}
}

func (c *Controller) inputField(form *tview.Form, label string) *tview.InputField {
	field, _ := form.GetFormItemByLabel(label).(*tview.InputField)

	return field
}

func (c *Controller) dropDown(form *tview.Form, label string) *tview.DropDown {
	dropDown, _ := form.GetFormItemByLabel(label).(*tview.DropDown)

	return dropDown
}

func paymentOptions() []string {
	options := make([]string, 0, db.NumPaymentStatuses)
	for _, status := range db.PaymentStatuses() {
		options = append(options, board.PaymentDisplay(status).Title)
	}

	return options
}

func formatAmount(amount float64) string {
	if amount == 0 {
		return ""
	}

	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func parseAmount(text string) (float64, error) {
	if text == "" {
		return 0, nil
	}

	amount, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s'", errInvalidValue, text)
	}

	return amount, nil
}

// sortedClients returns the clients on the board ordered by name.
func (c *Controller) sortedClients() []db.Client {
	clients := c.board.State().Clients()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].Name < clients[j].Name
	})

	return clients
}

func (c *Controller) initProjectForm() {
	c.projectForm = tview.NewForm().
		AddInputField("Name", "", nameMax, nil, nil).
		AddInputField("Description", "", descriptionMax, nil, nil).
		AddDropDown("Client", []string{noClient}, 0, nil).
		AddInputField("Value", "", valueMax, tview.InputFieldFloat, nil).
		AddInputField("Paid", "", valueMax, tview.InputFieldFloat, nil).
		AddDropDown("Payment", paymentOptions(), 0, nil)

	c.projectForm.AddButton("Save", func() {
		if err := c.saveProject(); err != nil {
			return
		}

		c.showBoard()
	})
}

// updateClientOptions refreshes the client drop down of the project form.
func (c *Controller) updateClientOptions() {
	c.clientOptions = c.sortedClients()

	options := []string{noClient}
	for _, client := range c.clientOptions {
		options = append(options, client.Name)
	}

	clientDropDown := c.dropDown(c.projectForm, "Client")
	clientDropDown.SetOptions(options, nil)
	clientDropDown.SetCurrentOption(0)
}

func (c *Controller) fillProjectForm(project *db.Project) {
	if project == nil {
		project = &db.Project{}
	}

	c.inputField(c.projectForm, "Name").SetText(project.Name)
	c.inputField(c.projectForm, "Description").SetText(project.Description)
	c.inputField(c.projectForm, "Value").SetText(formatAmount(project.Value))
	c.inputField(c.projectForm, "Paid").SetText(formatAmount(project.PaidValue))
	c.dropDown(c.projectForm, "Payment").SetCurrentOption(int(project.PaymentStatus))
	c.dropDown(c.projectForm, "Client").SetCurrentOption(0)

	for i, client := range c.clientOptions {
		if client.ID == project.ClientID {
			c.dropDown(c.projectForm, "Client").SetCurrentOption(i + 1)
		}
	}
}

func (c *Controller) projectFromForm() (db.Project, error) {
	project := db.Project{
		Name:        strings.TrimSpace(c.inputField(c.projectForm, "Name").GetText()),
		Description: c.inputField(c.projectForm, "Description").GetText(),
	}

	// option 0 is "no client"
	if idx, _ := c.dropDown(c.projectForm, "Client").GetCurrentOption(); idx > 0 && idx <= len(c.clientOptions) {
		project.ClientID = c.clientOptions[idx-1].ID
	}

	var err error

	if project.Value, err = parseAmount(c.inputField(c.projectForm, "Value").GetText()); err != nil {
		return db.Project{}, err
	}

	if project.PaidValue, err = parseAmount(c.inputField(c.projectForm, "Paid").GetText()); err != nil {
		return db.Project{}, err
	}

	if idx, _ := c.dropDown(c.projectForm, "Payment").GetCurrentOption(); idx >= 0 {
		project.PaymentStatus = db.PaymentStatus(idx)
	}

	return project, nil
}

// saveProject creates a new project or updates the one being edited.
func (c *Controller) saveProject() error {
	project, err := c.projectFromForm()

	message := fmt.Sprintf("added '%s'", project.Name)

	if err == nil {
		log.Debug().Msgf("saving project with name '%s'", project.Name)

		if c.editingProject == nil {
			project, err = c.store.CreateProject(c.ctx, project)
		} else {
			project, err = c.store.UpdateProject(c.ctx, c.editingProject.ID, db.ProjectPatch{
				Name:          &project.Name,
				Description:   &project.Description,
				ClientID:      &project.ClientID,
				Value:         &project.Value,
				PaidValue:     &project.PaidValue,
				PaymentStatus: &project.PaymentStatus,
			})
			message = fmt.Sprintf("updated '%s'", project.Name)
		}
	}

	if err != nil {
		log.Err(err).Msg("error saving the project")
		c.notify(board.Notification{Level: board.LevelError, Message: "error saving project", Err: err})

		return err
	}

	c.fillProjectForm(nil)
	c.notify(board.Notification{Level: board.LevelSuccess, Message: message})

	// new projects start in the first column; edited ones stay put
	if c.editingProject == nil {
		c.selectedColumn = db.StatusTodo
	}

	c.editingProject = nil

	// a failed reload is reported by the board
	_ = c.board.Load(c.ctx)

	return nil
}

func (c *Controller) initClientForm() {
	c.clientForm = tview.NewForm().
		AddDropDown("Client", []string{newClient}, 0, nil).
		AddInputField("Name", "", nameMax, nil, nil).
		AddInputField("Company", "", nameMax, nil, nil).
		AddInputField("Email", "", nameMax, nil, nil).
		AddInputField("Phone", "", nameMax, nil, nil)

	c.clientForm.AddButton("Save", func() {
		if err := c.saveClient(); err != nil {
			return
		}

		c.showBoard()
	})
}

// updateClientFormOptions lists the existing clients; picking one loads it for editing.
func (c *Controller) updateClientFormOptions() {
	c.clientOptions = c.sortedClients()

	options := []string{newClient}
	for _, client := range c.clientOptions {
		options = append(options, client.Name)
	}

	clientDropDown := c.dropDown(c.clientForm, "Client")
	clientDropDown.SetOptions(options, func(_ string, idx int) {
		c.fillClientForm(idx)
	})
	clientDropDown.SetCurrentOption(0)
}

// fillClientForm loads the client at option idx, or clears the form for option 0.
func (c *Controller) fillClientForm(idx int) {
	var client db.Client
	if idx > 0 && idx <= len(c.clientOptions) {
		client = c.clientOptions[idx-1]
	}

	c.inputField(c.clientForm, "Name").SetText(client.Name)
	c.inputField(c.clientForm, "Company").SetText(client.Company)
	c.inputField(c.clientForm, "Email").SetText(client.Email)
	c.inputField(c.clientForm, "Phone").SetText(client.Phone)
}

// saveClient creates a new client or updates the one picked in the drop down.
func (c *Controller) saveClient() error {
	client := db.Client{
		Name:    strings.TrimSpace(c.inputField(c.clientForm, "Name").GetText()),
		Company: c.inputField(c.clientForm, "Company").GetText(),
		Email:   c.inputField(c.clientForm, "Email").GetText(),
		Phone:   c.inputField(c.clientForm, "Phone").GetText(),
	}

	log.Debug().Msgf("saving client with name '%s'", client.Name)

	var err error

	message := fmt.Sprintf("added client '%s'", client.Name)

	if idx, _ := c.dropDown(c.clientForm, "Client").GetCurrentOption(); idx > 0 && idx <= len(c.clientOptions) {
		client.ID = c.clientOptions[idx-1].ID
		client, err = c.store.UpdateClient(c.ctx, client)
		message = fmt.Sprintf("updated client '%s'", client.Name)
	} else {
		client, err = c.store.CreateClient(c.ctx, client)
	}

	if err != nil {
		log.Err(err).Msg("error saving the client")
		c.notify(board.Notification{Level: board.LevelError, Message: "error saving client", Err: err})

		return err
	}

	c.notify(board.Notification{Level: board.LevelSuccess, Message: message})

	_ = c.board.Load(c.ctx)

	c.updateClientFormOptions()

	return nil
}
