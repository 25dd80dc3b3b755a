package softhouse

// DefaultRequest is used when the caller supplies no request of its own.
const DefaultRequest = `I want a 'ToDo API' project using Python Flask.
Features:
1. Add a task.
2. List all tasks.
3. Save tasks to a JSON file (database).

Structure Requirement:
- Separate folders for 'app', 'data', and 'tests'.
- Use 'run.py' to start the app.`
