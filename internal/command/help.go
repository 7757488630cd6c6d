package command

// HelpText is the reply to "cron help".
const HelpText = `Cron help

Jobs run a bot command on a six-field pattern:
  second minute hour day-of-month month weekday

Field ranges:
        second  0-59
        minute  0-59
          hour  0-23
  day-of-month  1-31
         month  0-11 (0 is January)
       weekday  0-6  (0 is Sunday)

Each field accepts * (every value), lists (1,3,5), ranges (1-5) and
steps (*/15, 0-30/10). Day-of-month and weekday must both match.
Example: "0 30 11 * * 1-5" runs every weekday at 11:30:00.

Every job needs a name without spaces. A job fires until it is stopped.

  cron job <name> <pattern> <command> [args...]   schedule a job now
  cron test <name> <pattern> <command> [args...]  run the command once and show upcoming times
  cron save <name> <pattern> <command> [args...]  save a job without starting it
  cron load <name>                                start a saved or stopped job
  cron stop <name>                                stop a running job
  cron delete <name>                              delete a job
  cron list                                       list all jobs
  cron help                                       show this text`
